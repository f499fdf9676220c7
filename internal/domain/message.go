package domain

import (
	"encoding/json"
	"time"
)

// Frame types.
const (
	FrameRegister   = "register"
	FrameChat       = "chat"
	FrameWhois      = "whois"
	FrameWelcome    = "welcome"
	FrameHistory    = "history"
	FrameNames      = "names"
	FrameRegistered = "registered"
	FramePresence   = "presence"
	FrameError      = "error"
)

// Message is one immutable entry of the chat log.
type Message struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Timestamp string    `json:"timestamp"`
}

// MessageView is a Message with the author's display name resolved at send time.
type MessageView struct {
	Message
	DisplayName string `json:"display_name"`
}

// Registration pairs a registered name with its owner.
type Registration struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// Request is an inbound frame sent by a WebSocket client.
type Request struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Text  string `json:"text,omitempty"`
	Owner string `json:"owner,omitempty"`
}

// WelcomeFrame is sent to a client right after it joins.
type WelcomeFrame struct {
	Type        string `json:"type"`
	Owner       string `json:"owner"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name"`
}

// HistoryFrame carries the most recent messages.
type HistoryFrame struct {
	Type     string        `json:"type"`
	Messages []MessageView `json:"messages"`
}

// NamesFrame lists every registered name.
type NamesFrame struct {
	Type  string         `json:"type"`
	Names []Registration `json:"names"`
}

// ChatFrame announces a newly posted message.
type ChatFrame struct {
	Type    string      `json:"type"`
	Message MessageView `json:"message"`
}

// RegisteredFrame announces a newly registered name.
type RegisteredFrame struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// PresenceFrame lists the owners currently connected.
type PresenceFrame struct {
	Type   string   `json:"type"`
	Owners []string `json:"owners"`
}

// WhoisFrame answers a whois request.
type WhoisFrame struct {
	Type        string `json:"type"`
	Owner       string `json:"owner"`
	DisplayName string `json:"display_name"`
}

// ErrorFrame reports a failed request to the client.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Encode serializes a value to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeRequest deserializes JSON bytes into a Request.
func DecodeRequest(data []byte) (Request, error) {
	var r Request
	err := json.Unmarshal(data, &r)
	return r, err
}
