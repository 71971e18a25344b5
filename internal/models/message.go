package models

import (
	"time"

	"github.com/google/uuid"
)

// Role tags the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	// RoleSystem exists for completeness; the core flow never stores it.
	RoleSystem Role = "system"
)

// InlineData is a base64-encoded binary payload carried inside a message.
type InlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// Part is one atomic unit of message content: either text or inline binary
// data, exactly one variant populated.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// IsValid reports whether the part carries usable content.
func (p Part) IsValid() bool {
	if p.InlineData != nil {
		return p.InlineData.Data != "" && p.InlineData.MimeType != ""
	}
	return p.Text != ""
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// DataPart builds an inline-data part.
func DataPart(data, mimeType string) Part {
	return Part{InlineData: &InlineData{Data: data, MimeType: mimeType}}
}

// Citation is one grounding source attached to a model message.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ChatMessage is one turn in a session's history.
type ChatMessage struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Parts     []Part     `json:"parts"`
	CreatedAt time.Time  `json:"createdAt"`
	Citations []Citation `json:"citations,omitempty"`
	VideoURI  string     `json:"videoUri,omitempty"`
}

// NewChatMessage builds a message with a fresh identity and timestamp.
func NewChatMessage(role Role, parts []Part) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Parts:     parts,
		CreatedAt: time.Now().UTC(),
	}
}

// FirstText returns the message's first non-empty text part, if any.
func (m *ChatMessage) FirstText() string {
	for _, p := range m.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}
