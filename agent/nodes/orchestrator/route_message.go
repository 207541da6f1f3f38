package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	routerx "github.com/tanpawarit/deptrouter/agent/router"
)

// RouteMessage is the branch condition after classification. It returns the
// stage node to run, or an error once the run is UNROUTABLE.
func RouteMessage(ctx context.Context, in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	stage, err := routerx.Route(in.Label)
	in.Stage = stage
	if err != nil {
		in.Phase = contractx.PhaseUnroutable
		if in.ClassifyErr != nil {
			return "", fmt.Errorf("%w: %w", err, in.ClassifyErr)
		}
		return "", err
	}
	return StageNode(stage), nil
}

// StageNode is the graph node key of a responding stage.
func StageNode(stage routerx.Stage) string {
	return "respond_" + stage.String()
}
