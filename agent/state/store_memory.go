package state

import (
	"context"
	"sync"
)

// MemoryStore keeps conversations in process. Values are cloned on the way in
// and out so concurrent runs never share a message slice.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
	}
}

func (s *MemoryStore) Load(ctx context.Context, conversationID string) (*Conversation, error) {
	id, err := normalizeID(conversationID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrStateNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, c *Conversation) error {
	if err := prepareForSave(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, conversationID string) error {
	id, err := normalizeID(conversationID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, id)
	return nil
}
