package domain

// Snapshot is the full persisted state: the name mapping and the message log.
type Snapshot struct {
	// Names maps a registered name to its owner.
	Names    map[string]string
	Messages []Message
}

// EmptySnapshot returns a snapshot with an empty mapping and log.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Names:    make(map[string]string),
		Messages: []Message{},
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Names:    make(map[string]string, len(s.Names)),
		Messages: make([]Message, len(s.Messages)),
	}
	for k, v := range s.Names {
		out.Names[k] = v
	}
	copy(out.Messages, s.Messages)
	return out
}
