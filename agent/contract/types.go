package contract

import (
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

type AgentType string

const (
	AgentTypeClassifier AgentType = "classifier"
	AgentTypeDomain     AgentType = "domain"
)

// Phase is a state of one orchestrator run.
type Phase string

const (
	PhaseStart       Phase = "start"
	PhaseClassifying Phase = "classifying"
	PhaseRouting     Phase = "routing"
	PhaseResponding  Phase = "responding"
	PhaseDone        Phase = "done"
	PhaseUnroutable  Phase = "unroutable"
	PhaseFailed      Phase = "failed"
)

// Terminal reports whether no further transition follows p.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseUnroutable || p == PhaseFailed
}

type ClassificationSource string

const (
	SourceRule ClassificationSource = "rule"
	SourceLLM  ClassificationSource = "llm"
)

type ClassifyRequest struct {
	// Latest is the most recent user message; earlier history is never sent.
	Latest statex.Message `json:"latest"`
}

type ClassifyResponse struct {
	Label  statex.Label         `json:"label"`
	Source ClassificationSource `json:"source"`
}

type RespondRequest struct {
	Latest statex.Message `json:"latest"`
}
