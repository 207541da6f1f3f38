// Package router maps a classification label to the stage that handles it.
package router

import (
	"fmt"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

// Stage names a responding node of the orchestrator graph.
type Stage string

const (
	StageExecutive  Stage = "executive"
	StageFinance    Stage = "finance"
	StageHR         Stage = "hr"
	StageOperations Stage = "operations"
	StageMarketing  Stage = "marketing"
	StageSales      Stage = "sales"
	StageTechnology Stage = "technology"
	StageLegal      Stage = "legal"

	StageUnroutable Stage = "unroutable"
)

func (s Stage) String() string {
	return string(s)
}

// Stages lists every routable stage, one per label.
func Stages() []Stage {
	out := make([]Stage, 0, len(statex.Labels))
	for _, l := range statex.Labels {
		s, err := Route(l)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Route is total over labels: anything outside the closed set, including the
// empty label, yields StageUnroutable and an error wrapping ErrUnroutable.
func Route(label statex.Label) (Stage, error) {
	switch label {
	case statex.LabelExecutive:
		return StageExecutive, nil
	case statex.LabelFinance:
		return StageFinance, nil
	case statex.LabelHR:
		return StageHR, nil
	case statex.LabelOperations:
		return StageOperations, nil
	case statex.LabelMarketing:
		return StageMarketing, nil
	case statex.LabelSales:
		return StageSales, nil
	case statex.LabelTechnology:
		return StageTechnology, nil
	case statex.LabelLegal:
		return StageLegal, nil
	case "":
		return StageUnroutable, fmt.Errorf("%w: label is absent", contractx.ErrUnroutable)
	default:
		return StageUnroutable, fmt.Errorf("%w: label=%q", contractx.ErrUnroutable, label)
	}
}
