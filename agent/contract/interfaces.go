package contract

import (
	"context"

	statex "github.com/tanpawarit/deptrouter/agent/state"
)

// Classifier picks exactly one label for the latest message of a conversation.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error)
}

// DomainAgent answers the latest user message with one assistant reply.
type DomainAgent interface {
	Label() statex.Label
	Respond(ctx context.Context, req RespondRequest) (statex.Message, error)
}

type Registry interface {
	Classifier() Classifier
	Agent(label statex.Label) (DomainAgent, bool)
}

// PositionsLookup is the static lookup spliced into the hr persona.
type PositionsLookup func() string
