package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	nodex "github.com/tanpawarit/deptrouter/agent/nodes/orchestrator"
	routerx "github.com/tanpawarit/deptrouter/agent/router"
	statex "github.com/tanpawarit/deptrouter/agent/state"
	metricsx "github.com/tanpawarit/deptrouter/pkg/metrics"
)

var (
	ErrInvalidMessage      = nodex.ErrInvalidMessage
	ErrInvalidConversation = nodex.ErrInvalidConversation
)

// Result describes one run. On failure it is still returned with the terminal
// phase and whatever label the run computed, but Reply is empty.
type Result struct {
	ConversationID string           `json:"conversation_id"`
	Label          statex.Label     `json:"label,omitempty"`
	Stage          routerx.Stage    `json:"stage,omitempty"`
	Phase          contractx.Phase  `json:"phase"`
	Reply          []statex.Message `json:"messages"`
}

type Orchestrator struct {
	store  statex.Store
	agents contractx.Registry

	graphRunner compose.Runnable[*nodex.GraphState, nodex.GraphOutput]

	metrics    *metricsx.Metrics
	runTimeout time.Duration
	now        func() time.Time
}

type Option func(*Orchestrator)

func WithMetrics(m *metricsx.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithRunTimeout bounds each HandleMessage call. Zero disables the bound.
func WithRunTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.runTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func New(store statex.Store, agents contractx.Registry, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}
	if agents.Classifier() == nil {
		return nil, errors.New("agent registry has no classifier")
	}
	for _, label := range statex.Labels {
		if _, ok := agents.Agent(label); !ok {
			return nil, errors.New("agent registry has no agent for label " + label.String())
		}
	}

	o := &Orchestrator{
		store:  store,
		agents: agents,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage appends text to the conversation, routes it to exactly one
// domain agent and persists the result. Runs on different conversation ids
// share no mutable state.
func (o *Orchestrator) HandleMessage(ctx context.Context, conversationID string, text string) (Result, error) {
	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	started := time.Now()
	st := nodex.NewGraphState(nodex.GraphInput{
		ConversationID: conversationID,
		Text:           text,
	}, o.now())

	out, err := o.graphRunner.Invoke(ctx, st)

	res := Result{
		ConversationID: st.ConversationID,
		Label:          st.Label,
		Stage:          st.Stage,
		Phase:          st.Phase,
	}
	if st.Label != "" {
		o.metrics.ObserveClassification(st.Label.String(), string(st.Source))
	}

	if err != nil {
		if !res.Phase.Terminal() {
			res.Phase = contractx.PhaseFailed
		}
		if res.Phase != contractx.PhaseUnroutable {
			res.Stage = ""
		}
		o.metrics.ObserveRun(res.Label.String(), string(res.Phase), time.Since(started))
		log.Debug().
			Str("conversation_id", res.ConversationID).
			Str("label", res.Label.String()).
			Str("phase", string(res.Phase)).
			Err(err).
			Msg("run ended without reply")
		return res, err
	}

	res.Phase = out.Phase
	res.Reply = out.Reply
	o.metrics.ObserveRun(res.Label.String(), string(res.Phase), time.Since(started))
	log.Info().
		Str("conversation_id", res.ConversationID).
		Str("label", res.Label.String()).
		Str("stage", res.Stage.String()).
		Str("phase", string(res.Phase)).
		Dur("duration", time.Since(started)).
		Msg("run completed")
	return res, nil
}

// Conversation returns the stored log of id.
func (o *Orchestrator) Conversation(ctx context.Context, id string) (*statex.Conversation, error) {
	conv, err := o.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, statex.ErrStateNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load conversation=%s: %w", contractx.ErrStateStore, id, err)
	}
	return conv, nil
}

// DeleteConversation removes id from the store.
func (o *Orchestrator) DeleteConversation(ctx context.Context, id string) error {
	if err := o.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete conversation=%s: %w", contractx.ErrStateStore, id, err)
	}
	return nil
}
