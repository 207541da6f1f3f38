package specialist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	promptx "github.com/tanpawarit/deptrouter/agent/prompt"
	statex "github.com/tanpawarit/deptrouter/agent/state"
	toolx "github.com/tanpawarit/deptrouter/agent/tool"
)

type fakeChatModel struct {
	mu     sync.Mutex
	reply  string
	err    error
	inputs [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeChatModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeChatModel) last() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return nil
	}
	return f.inputs[len(f.inputs)-1]
}

func newTestRegistry(t *testing.T, agentModel *fakeChatModel, opts ...RegistryOption) contractx.Registry {
	t.Helper()
	reg, err := NewRegistryWithModels(context.Background(), &fakeChatModel{reply: `{"message_type": "legal"}`}, agentModel, opts...)
	if err != nil {
		t.Fatalf("NewRegistryWithModels() error = %v", err)
	}
	return reg
}

func TestRegistryHasOneAgentPerLabel(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t, &fakeChatModel{reply: "ok"})
	if reg.Classifier() == nil {
		t.Fatal("classifier is nil")
	}
	for _, label := range statex.Labels {
		agent, ok := reg.Agent(label)
		if !ok {
			t.Fatalf("missing agent for %s", label)
		}
		if agent.Label() != label {
			t.Fatalf("agent for %s reports label %s", label, agent.Label())
		}
	}
	if _, ok := reg.Agent("unknown_dept"); ok {
		t.Fatal("unexpected agent for unknown label")
	}
}

func TestRespondSendsPersonaAndLatestMessage(t *testing.T) {
	t.Parallel()

	prompts := promptx.MustLoadPromptSet()
	model := &fakeChatModel{reply: "  Start with a prior-art search.  "}
	reg := newTestRegistry(t, model)

	agent, _ := reg.Agent(statex.LabelLegal)
	msg, err := agent.Respond(context.Background(), contractx.RespondRequest{
		Latest: statex.UserMessage("How do I file a patent for our new product?"),
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if msg.Role != statex.RoleAssistant || msg.Content != "Start with a prior-art search." {
		t.Fatalf("unexpected reply: %+v", msg)
	}
	if model.calls() != 1 {
		t.Fatalf("expected exactly one model call, got %d", model.calls())
	}

	in := model.last()
	if len(in) != 2 || in[0].Role != schema.System || in[1].Role != schema.User {
		t.Fatalf("unexpected request shape: %+v", in)
	}
	if in[0].Content != prompts.Personas[statex.LabelLegal] {
		t.Fatalf("legal persona not sent verbatim: %q", in[0].Content)
	}
	if in[1].Content != "How do I file a patent for our new product?" {
		t.Fatalf("unexpected user content: %q", in[1].Content)
	}
}

func TestHRPersonaContainsPositions(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{reply: "We are hiring."}
	reg := newTestRegistry(t, model)
	agent, _ := reg.Agent(statex.LabelHR)

	for _, text := range []string{"What job openings do you have?", "How many vacation days do I get?"} {
		if _, err := agent.Respond(context.Background(), contractx.RespondRequest{Latest: statex.UserMessage(text)}); err != nil {
			t.Fatalf("Respond(%q) error = %v", text, err)
		}
		persona := model.last()[0].Content
		if !strings.Contains(persona, toolx.AvailablePositions()) {
			t.Fatalf("hr persona lacks positions for %q: %q", text, persona)
		}
		if strings.Contains(persona, "{{") {
			t.Fatalf("hr persona has unrendered placeholders: %q", persona)
		}
	}
}

func TestOnlyHRReceivesPositions(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{reply: "ok"}
	reg := newTestRegistry(t, model, WithPositionsLookup(func() string { return "Openings: Staff Accountant." }))

	for _, label := range statex.Labels {
		agent, _ := reg.Agent(label)
		if _, err := agent.Respond(context.Background(), contractx.RespondRequest{Latest: statex.UserMessage("hello")}); err != nil {
			t.Fatalf("Respond(%s) error = %v", label, err)
		}
		has := strings.Contains(model.last()[0].Content, "Openings: Staff Accountant.")
		if has != (label == statex.LabelHR) {
			t.Fatalf("label %s: positions present = %v", label, has)
		}
	}
}

func TestRespondProviderFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		model *fakeChatModel
	}{
		{name: "error", model: &fakeChatModel{err: errors.New("timeout")}},
		{name: "empty", model: &fakeChatModel{reply: "   "}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			reg := newTestRegistry(t, tc.model)
			agent, _ := reg.Agent(statex.LabelFinance)
			_, err := agent.Respond(context.Background(), contractx.RespondRequest{Latest: statex.UserMessage("budget?")})
			if !errors.Is(err, contractx.ErrProviderFailure) {
				t.Fatalf("expected ErrProviderFailure, got %v", err)
			}
		})
	}
}

func TestRespondRejectsNonUserMessage(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{reply: "ok"}
	reg := newTestRegistry(t, model)
	agent, _ := reg.Agent(statex.LabelSales)

	_, err := agent.Respond(context.Background(), contractx.RespondRequest{Latest: statex.AssistantMessage("hi")})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if model.calls() != 0 {
		t.Fatalf("model should not be called, got %d", model.calls())
	}
}

func TestRegistryRequiresPositionsForHR(t *testing.T) {
	t.Parallel()

	_, err := NewRegistryWithModels(context.Background(), &fakeChatModel{}, &fakeChatModel{}, WithPositionsLookup(nil))
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRegistryRejectsMissingPersona(t *testing.T) {
	t.Parallel()

	set := promptx.MustLoadPromptSet()
	personas := make(map[statex.Label]string, len(set.Personas))
	for k, v := range set.Personas {
		personas[k] = v
	}
	delete(personas, statex.LabelMarketing)
	set.Personas = personas

	_, err := NewRegistryWithModels(context.Background(), &fakeChatModel{}, &fakeChatModel{}, WithPromptSet(set))
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
