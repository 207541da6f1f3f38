package state

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrStateNotFound = errors.New("conversation state not found")

const (
	defaultStoreKeyPrefix = "deptrouter:conv:"
	defaultStoreTTL       = 24 * time.Hour
)

// Store persists conversations by identifier. Implementations must keep
// conversations isolated per id; no other concurrency control is assumed.
type Store interface {
	Load(ctx context.Context, conversationID string) (*Conversation, error)
	Save(ctx context.Context, c *Conversation) error
	Delete(ctx context.Context, conversationID string) error
}

func normalizeID(conversationID string) (string, error) {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return "", ErrInvalidConversation
	}
	return id, nil
}

func prepareForSave(c *Conversation) error {
	if c == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidConversation
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	} else {
		c.UpdatedAt = c.UpdatedAt.UTC()
	}
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	return c.Validate()
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
