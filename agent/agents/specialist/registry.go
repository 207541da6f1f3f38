package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	classifierx "github.com/tanpawarit/deptrouter/agent/agents/classifier"
	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	llmx "github.com/tanpawarit/deptrouter/agent/llm"
	promptx "github.com/tanpawarit/deptrouter/agent/prompt"
	statex "github.com/tanpawarit/deptrouter/agent/state"
	toolx "github.com/tanpawarit/deptrouter/agent/tool"
)

type registryImpl struct {
	classifier contractx.Classifier
	agents     map[statex.Label]contractx.DomainAgent
}

func (r *registryImpl) Classifier() contractx.Classifier {
	return r.classifier
}

func (r *registryImpl) Agent(label statex.Label) (contractx.DomainAgent, bool) {
	a, ok := r.agents[label]
	return a, ok
}

type registryOptions struct {
	prompts   *promptx.PromptSet
	rules     []classifierx.Rule
	positions contractx.PositionsLookup
}

type RegistryOption func(*registryOptions)

// WithPromptSet overrides the embedded prompts.
func WithPromptSet(set promptx.PromptSet) RegistryOption {
	return func(o *registryOptions) {
		o.prompts = &set
	}
}

// WithClassifierRules adds CEL fast-path rules in front of the classifier model.
func WithClassifierRules(rules []classifierx.Rule) RegistryOption {
	return func(o *registryOptions) {
		o.rules = rules
	}
}

// WithPositionsLookup replaces the hr lookup.
func WithPositionsLookup(fn contractx.PositionsLookup) RegistryOption {
	return func(o *registryOptions) {
		o.positions = fn
	}
}

func NewRegistry(ctx context.Context, cfg llmx.Config, opts ...RegistryOption) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	classifierModelCfg := cfg.OpenRouterFor(contractx.AgentTypeClassifier)
	classifierModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create classifier model: %v", contractx.ErrProviderFailure, err)
	}
	agentModelCfg := cfg.OpenRouterFor(contractx.AgentTypeDomain)
	agentModel, err := agentModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create agent model: %v", contractx.ErrProviderFailure, err)
	}

	return NewRegistryWithModels(ctx, classifierModel, agentModel, opts...)
}

// NewRegistryWithModels wires the classifier and all eight domain agents on
// the given models. Only the hr agent receives the positions lookup.
func NewRegistryWithModels(
	ctx context.Context,
	classifierModel einomodel.BaseChatModel,
	agentModel einomodel.BaseChatModel,
	opts ...RegistryOption,
) (contractx.Registry, error) {
	o := registryOptions{positions: toolx.AvailablePositions}
	for _, opt := range opts {
		opt(&o)
	}

	var prompts promptx.PromptSet
	if o.prompts != nil {
		prompts = *o.prompts
	} else {
		set, err := promptx.LoadPromptSet()
		if err != nil {
			return nil, err
		}
		prompts = set
	}

	rules, err := classifierx.CompileRules(o.rules)
	if err != nil {
		return nil, err
	}
	classifier, err := classifierx.New(ctx, classifierModel, prompts.Classifier, classifierx.WithRules(rules))
	if err != nil {
		return nil, err
	}

	agents := make(map[statex.Label]contractx.DomainAgent, len(statex.Labels))
	for _, label := range statex.Labels {
		var positions contractx.PositionsLookup
		if label == statex.LabelHR {
			if o.positions == nil {
				return nil, fmt.Errorf("%w: hr agent requires a positions lookup", contractx.ErrValidation)
			}
			positions = o.positions
		}

		agent, err := newDomainAgent(ctx, label, agentModel, prompts.Personas[label], positions)
		if err != nil {
			return nil, err
		}
		agents[label] = agent
	}

	return &registryImpl{
		classifier: classifier,
		agents:     agents,
	}, nil
}
