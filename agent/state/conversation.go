package state

import (
	"errors"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is immutable once created; slices of Message are copied, never shared.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

var (
	ErrInvalidConversation = errors.New("conversation id is empty")
	ErrNilConversation     = errors.New("conversation is nil")
	ErrNoMessages          = errors.New("conversation has no messages")
	ErrInvalidRole         = errors.New("message role is invalid")
)

// Conversation is the append-only message log of one conversation plus the
// label computed by the most recent run.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	Messages  []Message `json:"messages"`
	Label     Label     `json:"label,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewConversation(id string, now time.Time) *Conversation {
	return &Conversation{
		ID:        id,
		Messages:  make([]Message, 0, 4),
		UpdatedAt: now.UTC(),
	}
}

func (c *Conversation) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

// Append adds messages to the end of the log.
func (c *Conversation) Append(msgs ...Message) error {
	if c == nil {
		return ErrNilConversation
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return ErrInvalidRole
		}
	}
	c.Messages = append(c.Messages, msgs...)
	return nil
}

// Latest returns the most recent message.
func (c *Conversation) Latest() (Message, error) {
	if c == nil {
		return Message{}, ErrNilConversation
	}
	if len(c.Messages) == 0 {
		return Message{}, ErrNoMessages
	}
	return c.Messages[len(c.Messages)-1], nil
}

// Since returns a copy of the messages appended after the first n.
func (c *Conversation) Since(n int) []Message {
	if c == nil || n >= len(c.Messages) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return append([]Message(nil), c.Messages[n:]...)
}

// Clone returns a deep copy so that callers never alias another run's log.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = append(make([]Message, 0, len(c.Messages)), c.Messages...)
	return &out
}

func (c *Conversation) Validate() error {
	if c == nil {
		return ErrNilConversation
	}
	if c.ID == "" {
		return ErrInvalidConversation
	}
	if c.Label != "" && !c.Label.Valid() {
		return errors.New("conversation label is not a known label: " + string(c.Label))
	}
	for _, m := range c.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return ErrInvalidRole
		}
	}
	return nil
}
