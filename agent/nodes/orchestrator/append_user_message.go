package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

// AppendUserMessage adds the incoming text verbatim. It only touches the
// run's copy; nothing is persisted until SaveState.
func AppendUserMessage(in *GraphState) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not loaded", contractx.ErrValidation)
	}
	if err := in.Conversation.Append(statex.UserMessage(in.Text)); err != nil {
		return nil, fmt.Errorf("%w: append user message: %v", contractx.ErrValidation, err)
	}
	return in, nil
}
