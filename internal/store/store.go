// Package store owns the live set of chat sessions and their persistence
// round-trip through an injected snapshot port.
package store

import (
	"log"
	"sync"
	"time"

	"promptstudio/internal/models"
)

// SnapshotPort abstracts the persistence backend so the store is testable
// without a real storage engine.
type SnapshotPort interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}

// Store holds every session and tracks which one is active. All mutation goes
// through store operations, and the active id always references an existing
// session.
type Store struct {
	mu       sync.Mutex
	sessions []*models.ChatSession // newest first
	activeID string
	port     SnapshotPort
}

// New builds a store over the given persistence port and loads its snapshot.
// A missing, empty or corrupt snapshot yields exactly one fresh default
// session; that is never surfaced as an error.
func New(port SnapshotPort) *Store {
	s := &Store{port: port}
	snap, err := port.Load()
	if err != nil {
		log.Printf("load sessions snapshot: %v, starting fresh", err)
	}
	s.sessions = sanitizeSessions(snap.Sessions)
	if len(s.sessions) == 0 {
		s.sessions = []*models.ChatSession{models.NewChatSession("", models.ModelGeminiFlash)}
	}
	s.activeID = s.sessions[0].ID
	return s
}

// Create adds a session with the default configuration and makes it active.
func (s *Store) Create(title string, model models.Model) *models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := models.NewChatSession(title, model)
	s.sessions = append([]*models.ChatSession{session}, s.sessions...)
	s.activeID = session.ID
	s.persist()
	return session.Clone()
}

// Select makes the given session active. Unknown ids are a no-op.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(id) != nil {
		s.activeID = id
		s.persist()
	}
}

// Delete removes a session. When the active session goes away activation
// moves to the first remaining one; deleting the last session creates a fresh
// default so the store never ends up empty with no active id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, session := range s.sessions {
		if session.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if len(s.sessions) == 0 {
		fresh := models.NewChatSession("", models.ModelGeminiFlash)
		s.sessions = []*models.ChatSession{fresh}
		s.activeID = fresh.ID
	} else if s.activeID == id {
		s.activeID = s.sessions[0].ID
	}
	s.persist()
}

// Patch carries a partial session update; nil fields stay untouched.
type Patch struct {
	Title             *string                  `json:"title,omitempty"`
	SystemInstruction *string                  `json:"systemInstruction,omitempty"`
	Variables         map[string]string        `json:"variables,omitempty"`
	Config            *models.GenerationConfig `json:"config,omitempty"`
}

// Update merges a partial change into a session and bumps its last-modified
// timestamp. Unknown ids are a no-op.
func (s *Store) Update(id string, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.find(id)
	if session == nil {
		return
	}
	if patch.Title != nil {
		session.Title = *patch.Title
	}
	if patch.SystemInstruction != nil {
		session.SystemInstruction = *patch.SystemInstruction
	}
	if patch.Variables != nil {
		session.Variables = patch.Variables
	}
	if patch.Config != nil {
		session.Config = *patch.Config
	}
	session.LastModified = time.Now().UTC()
	s.persist()
}

// AppendMessage adds a message to a session's history. The first user message
// also titles a still-untitled session after its text. Unknown ids no-op.
func (s *Store) AppendMessage(id string, msg *models.ChatMessage) {
	if msg == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.find(id)
	if session == nil {
		return
	}
	if len(session.Messages) == 0 && msg.Role == models.RoleUser && session.Title == models.DefaultTitle {
		session.Title = deriveTitle(msg)
	}
	session.Messages = append(session.Messages, msg)
	session.LastModified = time.Now().UTC()
	s.persist()
}

// Get returns a copy of the session with the given id, or nil. The live
// session never leaves the store: callers read their copy without holding the
// store's lock while other goroutines mutate.
func (s *Store) Get(id string) *models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(id).Clone()
}

// Active returns a copy of the currently active session.
func (s *Store) Active() *models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(s.activeID).Clone()
}

// ActiveID returns the active session id.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// List returns copies of the sessions, newest first.
func (s *Store) List() []*models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ChatSession, len(s.sessions))
	for i, session := range s.sessions {
		out[i] = session.Clone()
	}
	return out
}

// Save forces a snapshot write.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Save(Snapshot{Sessions: s.sessions})
}

func (s *Store) find(id string) *models.ChatSession {
	for _, session := range s.sessions {
		if session.ID == id {
			return session
		}
	}
	return nil
}

// persist writes the snapshot under the lock; failures are logged, never
// propagated into the mutation path.
func (s *Store) persist() {
	if err := s.port.Save(Snapshot{Sessions: s.sessions}); err != nil {
		log.Printf("save sessions snapshot: %v", err)
	}
}

const titleLimit = 30

func deriveTitle(msg *models.ChatMessage) string {
	text := msg.FirstText()
	if text == "" {
		return "Media Prompt"
	}
	if runes := []rune(text); len(runes) > titleLimit {
		return string(runes[:titleLimit])
	}
	return text
}
