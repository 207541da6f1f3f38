package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

func LoadOrCreateState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conv, err := store.Load(ctx, in.ConversationID)
	switch {
	case err == nil:
	case errors.Is(err, statex.ErrStateNotFound):
		conv = statex.NewConversation(in.ConversationID, in.Now)
	default:
		return nil, fmt.Errorf("%w: load conversation=%s: %w", contractx.ErrStateStore, in.ConversationID, err)
	}

	in.Conversation = conv
	in.StartLen = len(conv.Messages)
	return in, nil
}
