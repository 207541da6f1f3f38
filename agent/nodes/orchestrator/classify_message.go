package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
)

// ClassifyMessage sets the run label once from the latest message. An out of
// domain answer leaves the label absent so routing ends UNROUTABLE.
func ClassifyMessage(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not loaded", contractx.ErrValidation)
	}
	if in.Label != "" {
		return nil, fmt.Errorf("%w: label already set to %s", contractx.ErrValidation, in.Label)
	}
	in.Phase = contractx.PhaseClassifying

	latest, err := in.Conversation.Latest()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	resp, err := classifier.Classify(ctx, contractx.ClassifyRequest{Latest: latest})
	if err != nil {
		if !errors.Is(err, contractx.ErrClassificationOutOfDomain) {
			return nil, err
		}
		in.ClassifyErr = err
	} else {
		in.Label = resp.Label
		in.Source = resp.Source
	}

	in.Phase = contractx.PhaseRouting
	return in, nil
}
