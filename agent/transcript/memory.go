package transcript

import (
	"context"
	"sync"
)

// MemoryStore keeps transcripts for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Transcript
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*Transcript)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Transcript, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, t *Transcript) error {
	if err := prepareForSave(t); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[t.SessionID] = t.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}
