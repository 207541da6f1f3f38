package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// keyspace maps conversation ids onto redis keys and a shared expiry. Both
// redis-backed stores use it so their on-wire layout is identical.
type keyspace struct {
	prefix string
	ttl    time.Duration
}

func newKeyspace(prefix string, ttl time.Duration) (keyspace, error) {
	if ttl < 0 {
		return keyspace{}, errors.New("ttl must be >= 0")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultStoreKeyPrefix
	}
	return keyspace{prefix: prefix, ttl: ttl}, nil
}

func (k keyspace) key(conversationID string) (string, error) {
	id, err := normalizeID(conversationID)
	if err != nil {
		return "", err
	}
	prefix := k.prefix
	if prefix == "" {
		prefix = defaultStoreKeyPrefix
	}
	return prefix + id, nil
}

func encodeConversation(c *Conversation) ([]byte, error) {
	if err := prepareForSave(c); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	return payload, nil
}

func decodeConversation(raw []byte) (*Conversation, error) {
	var c Conversation
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stored conversation: %w", err)
	}
	return &c, nil
}
