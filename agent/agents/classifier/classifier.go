// Package classifier picks one label for the latest user message, first by
// optional CEL rules and then by an LLM call.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

type Agent struct {
	instruction string
	runner      compose.Runnable[map[string]any, labelOutput]
	rules       *Rules
}

var _ contractx.Classifier = (*Agent)(nil)

type Option func(*Agent)

// WithRules installs compiled fast-path rules.
func WithRules(rules *Rules) Option {
	return func(a *Agent) {
		a.rules = rules
	}
}

func New(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	instruction string,
	opts ...Option,
) (*Agent, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: classifier chat model is required", contractx.ErrValidation)
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: classifier instruction", contractx.ErrPromptMissing)
	}

	runner, err := compileClassifierGraph(ctx, chatModel)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		instruction: instruction,
		runner:      runner,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Classify never looks past req.Latest, so the label is independent of
// earlier history.
func (a *Agent) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResponse, error) {
	if req.Latest.Role != statex.RoleUser {
		return contractx.ClassifyResponse{}, fmt.Errorf("%w: latest message role=%s, want user", contractx.ErrValidation, req.Latest.Role)
	}
	content := req.Latest.Content
	if strings.TrimSpace(content) == "" {
		return contractx.ClassifyResponse{}, fmt.Errorf("%w: latest message is empty", contractx.ErrValidation)
	}

	if label, ok := a.rules.Match(ctx, content); ok {
		log.Info().Str("label", label.String()).Str("source", string(contractx.SourceRule)).Msg("message classified")
		return contractx.ClassifyResponse{Label: label, Source: contractx.SourceRule}, nil
	}

	out, err := a.runner.Invoke(ctx, map[string]any{
		"instruction": a.instruction,
		"input":       content,
	})
	if err != nil {
		return contractx.ClassifyResponse{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrProviderFailure, err)
	}

	label, err := labelFromOutput(out)
	if err != nil {
		if errors.Is(err, contractx.ErrClassificationOutOfDomain) {
			log.Warn().Str("message_type", out.MessageType).Msg("classifier returned an unknown label")
		}
		return contractx.ClassifyResponse{}, err
	}

	log.Info().Str("label", label.String()).Str("source", string(contractx.SourceLLM)).Msg("message classified")
	return contractx.ClassifyResponse{Label: label, Source: contractx.SourceLLM}, nil
}

func labelFromOutput(out labelOutput) (statex.Label, error) {
	if strings.TrimSpace(out.MessageType) == "" {
		return "", fmt.Errorf("%w: classifier output has no message_type", contractx.ErrProviderFailure)
	}
	label, ok := statex.ParseLabel(out.MessageType)
	if !ok {
		return "", fmt.Errorf("%w: got %q", contractx.ErrClassificationOutOfDomain, out.MessageType)
	}
	return label, nil
}
