package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	routerx "github.com/tanpawarit/deptrouter/agent/router"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

var (
	ErrInvalidMessage      = fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	ErrInvalidConversation = fmt.Errorf("%w: conversation id is empty", contractx.ErrValidation)
)

type GraphInput struct {
	ConversationID string
	Text           string
}

type GraphOutput struct {
	ConversationID string
	Label          statex.Label
	Stage          routerx.Stage
	Phase          contractx.Phase
	Reply          []statex.Message
}

// GraphState is owned by one run. The caller keeps the pointer so the phase
// reached is readable after a failed Invoke.
type GraphState struct {
	ConversationID string
	Text           string
	Now            time.Time

	Conversation *statex.Conversation
	// StartLen is the log length before this run appended anything.
	StartLen int

	Label       statex.Label
	Source      contractx.ClassificationSource
	ClassifyErr error
	Stage       routerx.Stage
	Phase       contractx.Phase
	Reply       statex.Message

	// Responded counts domain agent executions in this run.
	Responded int
}

func NewGraphState(in GraphInput, now time.Time) *GraphState {
	return &GraphState{
		ConversationID: in.ConversationID,
		Text:           in.Text,
		Now:            now.UTC(),
		Phase:          contractx.PhaseStart,
	}
}

func ValidateRequest(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conversationID := strings.TrimSpace(in.ConversationID)
	if conversationID == "" {
		return nil, ErrInvalidConversation
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrInvalidMessage
	}

	in.ConversationID = conversationID
	return in, nil
}
