package store

import (
	"encoding/json"
	"time"

	"promptstudio/internal/models"
)

// Snapshot is the full serialized session set, stored under one well-known
// key by the persistence port.
type Snapshot struct {
	Sessions []*models.ChatSession `json:"sessions"`
}

// storedMessage mirrors ChatMessage but keeps parts raw so a single corrupt
// part cannot poison the whole message on load.
type storedMessage struct {
	ID        string            `json:"id"`
	Role      models.Role       `json:"role"`
	Parts     []json.RawMessage `json:"parts"`
	CreatedAt time.Time         `json:"createdAt"`
	Citations []models.Citation `json:"citations,omitempty"`
	VideoURI  string            `json:"videoUri,omitempty"`
}

type storedSession struct {
	ID                string                  `json:"id"`
	Title             string                  `json:"title"`
	Messages          []storedMessage         `json:"messages"`
	SystemInstruction string                  `json:"systemInstruction"`
	Variables         map[string]string       `json:"variables,omitempty"`
	Config            models.GenerationConfig `json:"config"`
	LastModified      time.Time               `json:"lastModified"`
}

// DecodeSnapshot parses serialized snapshot bytes, running the validation
// pass that drops parts which are neither valid text nor valid inline data.
// It never fails on per-entry corruption, only on an unreadable envelope.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var raw struct {
		Sessions []storedSession `json:"sessions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Sessions: make([]*models.ChatSession, 0, len(raw.Sessions))}
	for _, rs := range raw.Sessions {
		snap.Sessions = append(snap.Sessions, reviveSession(rs))
	}
	return snap, nil
}

// EncodeSnapshot serializes a snapshot for the persistence port.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func reviveSession(rs storedSession) *models.ChatSession {
	session := &models.ChatSession{
		ID:                rs.ID,
		Title:             rs.Title,
		Messages:          make([]*models.ChatMessage, 0, len(rs.Messages)),
		SystemInstruction: rs.SystemInstruction,
		Variables:         rs.Variables,
		Config:            rs.Config,
		LastModified:      rs.LastModified,
	}
	if session.Variables == nil {
		session.Variables = make(map[string]string)
	}
	for _, rm := range rs.Messages {
		parts := reviveParts(rm.Parts)
		if len(parts) == 0 {
			continue
		}
		session.Messages = append(session.Messages, &models.ChatMessage{
			ID:        rm.ID,
			Role:      rm.Role,
			Parts:     parts,
			CreatedAt: rm.CreatedAt,
			Citations: rm.Citations,
			VideoURI:  rm.VideoURI,
		})
	}
	return session
}

// reviveParts keeps only parts that decode cleanly into one of the two
// variants and carry content.
func reviveParts(raw []json.RawMessage) []models.Part {
	parts := make([]models.Part, 0, len(raw))
	for _, rp := range raw {
		var p models.Part
		if err := json.Unmarshal(rp, &p); err != nil {
			continue
		}
		if !p.IsValid() {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

// sanitizeSessions drops unusable snapshot entries before they become live
// state: sessions without an id or with an unknown model fall back to safe
// defaults where possible.
func sanitizeSessions(sessions []*models.ChatSession) []*models.ChatSession {
	out := make([]*models.ChatSession, 0, len(sessions))
	for _, session := range sessions {
		if session == nil || session.ID == "" {
			continue
		}
		if !session.Config.Model.IsKnown() {
			session.Config.Model = models.ModelGeminiFlash
		}
		if session.Variables == nil {
			session.Variables = make(map[string]string)
		}
		if session.Messages == nil {
			session.Messages = make([]*models.ChatMessage, 0)
		}
		out = append(out, session)
	}
	return out
}
