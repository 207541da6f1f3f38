package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	routerx "github.com/tanpawarit/deptrouter/agent/router"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

// RespondWith runs the domain agent bound to stage and appends its reply.
func RespondWith(
	ctx context.Context,
	in *GraphState,
	stage routerx.Stage,
	agents contractx.Registry,
) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not loaded", contractx.ErrValidation)
	}
	if in.Stage != stage {
		return nil, fmt.Errorf("%w: stage %s entered while routed to %s", contractx.ErrUnroutable, stage, in.Stage)
	}
	if in.Responded > 0 {
		return nil, fmt.Errorf("%w: a domain agent already responded in this run", contractx.ErrValidation)
	}
	in.Phase = contractx.PhaseResponding

	agent, ok := agents.Agent(statex.Label(stage))
	if !ok {
		return nil, fmt.Errorf("%w: no agent for stage %s", contractx.ErrUnroutable, stage)
	}

	latest, err := in.Conversation.Latest()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	in.Responded++
	reply, err := agent.Respond(ctx, contractx.RespondRequest{Latest: latest})
	if err != nil {
		return nil, err
	}
	if err := in.Conversation.Append(reply); err != nil {
		return nil, fmt.Errorf("%w: append reply: %v", contractx.ErrProviderFailure, err)
	}
	in.Reply = reply
	return in, nil
}
