package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/deptrouter/agent/nodes/orchestrator"
	routerx "github.com/tanpawarit/deptrouter/agent/router"
)

// compileHandleMessageGraph builds
//
//	validate -> load -> append user -> classify -branch-> respond_<stage> -> save -> finalize
//
// The branch selects exactly one of the stage nodes; an unroutable label
// fails the branch and ends the run.
func (o *Orchestrator) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[*nodex.GraphState, nodex.GraphOutput], error) {
	graph := compose.NewGraph[*nodex.GraphState, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateState(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_state: %w", err)
	}

	if err := graph.AddLambdaNode("append_user_message",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AppendUserMessage(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node append_user_message: %w", err)
	}

	if err := graph.AddLambdaNode("classify_message",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyMessage(ctx, in, o.agents.Classifier())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_message: %w", err)
	}

	stageNodes := make(map[string]bool, len(routerx.Stages()))
	for _, stage := range routerx.Stages() {
		key := nodex.StageNode(stage)
		if err := graph.AddLambdaNode(key,
			compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
				return nodex.RespondWith(ctx, in, stage, o.agents)
			}),
		); err != nil {
			return nil, fmt.Errorf("add node %s: %w", key, err)
		}
		stageNodes[key] = true
	}

	if err := graph.AddLambdaNode("save_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveState(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	if err := graph.AddBranch("classify_message", compose.NewGraphBranch(nodex.RouteMessage, stageNodes)); err != nil {
		return nil, fmt.Errorf("add branch classify_message: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_state"},
		{"load_or_create_state", "append_user_message"},
		{"append_user_message", "classify_message"},
	}
	for key := range stageNodes {
		edges = append(edges, [2]string{key, "save_state"})
	}
	edges = append(edges,
		[2]string{"save_state", "finalize_reply"},
		[2]string{"finalize_reply", compose.END},
	)

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("orchestrator.handle_message"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
