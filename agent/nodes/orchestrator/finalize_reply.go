package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

// FinalizeReply ends the run in DONE and exposes the assistant messages
// appended by it.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Conversation == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	var reply []statex.Message
	for _, m := range in.Conversation.Since(in.StartLen) {
		if m.Role == statex.RoleAssistant {
			reply = append(reply, m)
		}
	}
	if len(reply) != 1 {
		return GraphOutput{}, fmt.Errorf("%w: expected one assistant reply, got %d", contractx.ErrValidation, len(reply))
	}

	in.Phase = contractx.PhaseDone
	return GraphOutput{
		ConversationID: in.ConversationID,
		Label:          in.Label,
		Stage:          in.Stage,
		Phase:          in.Phase,
		Reply:          reply,
	}, nil
}
