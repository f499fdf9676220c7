package domain

// Stats summarizes the chat state.
type Stats struct {
	Names        int `json:"names"`
	MessageCount int `json:"message_count"`
	Online       int `json:"online"`
}
