package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxUpstashResponseBytes = 2 << 20

type UpstashConfig struct {
	URL       string        `envconfig:"URL" split_words:"true" required:"true"`
	Token     string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" split_words:"true" default:"deptrouter:conv:"`
	TTL       time.Duration `envconfig:"TTL" split_words:"true" default:"24h"`
}

type UpstashOption func(*UpstashStore)

// WithUpstashHTTPClient replaces the default client built from Timeout.
func WithUpstashHTTPClient(client *http.Client) UpstashOption {
	return func(s *UpstashStore) {
		if client != nil {
			s.http = client
		}
	}
}

// UpstashStore keeps the RedisStore key layout but talks to Upstash over its
// REST endpoint, one JSON-array command per request.
type UpstashStore struct {
	endpoint string
	token    string
	http     *http.Client
	keys     keyspace
}

type upstashReply struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewUpstashStore(cfg UpstashConfig, opts ...UpstashOption) (*UpstashStore, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if endpoint == "" {
		return nil, errors.New("upstash url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid upstash url: %w", err)
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash token is required")
	}
	keys, err := newKeyspace(cfg.KeyPrefix, cfg.TTL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &UpstashStore{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: timeout},
		keys:     keys,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *UpstashStore) Load(ctx context.Context, conversationID string) (*Conversation, error) {
	key, err := s.keys.key(conversationID)
	if err != nil {
		return nil, err
	}

	result, err := s.do(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, ErrStateNotFound
	}

	// The stored document comes back as a JSON string.
	var doc string
	if err := json.Unmarshal(result, &doc); err != nil {
		return nil, fmt.Errorf("upstash get %s: decode result: %w", key, err)
	}
	return decodeConversation([]byte(doc))
}

func (s *UpstashStore) Save(ctx context.Context, c *Conversation) error {
	payload, err := encodeConversation(c)
	if err != nil {
		return err
	}
	key, err := s.keys.key(c.ID)
	if err != nil {
		return err
	}

	args := []any{"SET", key, string(payload)}
	if s.keys.ttl > 0 {
		args = append(args, "EX", ttlSeconds(s.keys.ttl))
	}
	_, err = s.do(ctx, args...)
	return err
}

func (s *UpstashStore) Delete(ctx context.Context, conversationID string) error {
	key, err := s.keys.key(conversationID)
	if err != nil {
		return err
	}
	_, err = s.do(ctx, "DEL", key)
	return err
}

// do runs one command and returns its trimmed result.
func (s *UpstashStore) do(ctx context.Context, args ...any) (json.RawMessage, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("upstash %v: marshal: %w", args[0], err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstash %v: build request: %w", args[0], err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstash %v: %w", args[0], err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstashResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("upstash %v: read response: %w", args[0], err)
	}

	var reply upstashReply
	decodeErr := json.Unmarshal(raw, &reply)
	switch {
	case reply.Error != "":
		return nil, fmt.Errorf("upstash %v: status=%d: %s", args[0], resp.StatusCode, reply.Error)
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("upstash %v: status=%d body=%s", args[0], resp.StatusCode, raw)
	case decodeErr != nil:
		return nil, fmt.Errorf("upstash %v: decode response: %w", args[0], decodeErr)
	}
	return bytes.TrimSpace(reply.Result), nil
}
