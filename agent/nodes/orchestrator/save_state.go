package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

// SaveState persists the conversation after a successful response, with the
// run label recorded as the last computed label.
func SaveState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not loaded", contractx.ErrValidation)
	}
	if in.Responded != 1 {
		return nil, fmt.Errorf("%w: expected one domain response, got %d", contractx.ErrValidation, in.Responded)
	}

	in.Conversation.Label = in.Label
	in.Conversation.Touch(in.Now)
	if err := in.Conversation.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if err := store.Save(ctx, in.Conversation); err != nil {
		return nil, fmt.Errorf("%w: save conversation=%s: %w", contractx.ErrStateStore, in.ConversationID, err)
	}
	return in, nil
}
