package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	routerx "github.com/tanpawarit/deptrouter/agent/router"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

var testNow = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

type stubClassifier struct {
	resp contractx.ClassifyResponse
	err  error
}

func (s stubClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResponse, error) {
	return s.resp, s.err
}

type stubAgent struct {
	label statex.Label
}

func (s stubAgent) Label() statex.Label { return s.label }

func (s stubAgent) Respond(ctx context.Context, req contractx.RespondRequest) (statex.Message, error) {
	return statex.AssistantMessage("ok"), nil
}

type stubRegistry struct{}

func (stubRegistry) Classifier() contractx.Classifier { return nil }

func (stubRegistry) Agent(label statex.Label) (contractx.DomainAgent, bool) {
	if !label.Valid() {
		return nil, false
	}
	return stubAgent{label: label}, true
}

func loadedState(t *testing.T, text string) *GraphState {
	t.Helper()
	st := NewGraphState(GraphInput{ConversationID: " c1 ", Text: text}, testNow)
	st, err := ValidateRequest(st)
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	st.Conversation = statex.NewConversation(st.ConversationID, testNow)
	if _, err := AppendUserMessage(st); err != nil {
		t.Fatalf("AppendUserMessage() error = %v", err)
	}
	return st
}

func TestValidateRequestTrimsID(t *testing.T) {
	t.Parallel()

	st := loadedState(t, "hi")
	if st.ConversationID != "c1" || st.Phase != contractx.PhaseStart {
		t.Fatalf("unexpected state: id=%q phase=%s", st.ConversationID, st.Phase)
	}
}

func TestClassifyThenRoute(t *testing.T) {
	t.Parallel()

	st := loadedState(t, "contract review")
	st, err := ClassifyMessage(context.Background(), st, stubClassifier{resp: contractx.ClassifyResponse{Label: statex.LabelLegal}})
	if err != nil {
		t.Fatalf("ClassifyMessage() error = %v", err)
	}
	if st.Phase != contractx.PhaseRouting || st.Label != statex.LabelLegal {
		t.Fatalf("unexpected state: phase=%s label=%s", st.Phase, st.Label)
	}

	node, err := RouteMessage(context.Background(), st)
	if err != nil {
		t.Fatalf("RouteMessage() error = %v", err)
	}
	if node != "respond_legal" || st.Stage != routerx.StageLegal {
		t.Fatalf("unexpected route: node=%s stage=%s", node, st.Stage)
	}

	if _, err := ClassifyMessage(context.Background(), st, stubClassifier{resp: contractx.ClassifyResponse{Label: statex.LabelHR}}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("label must not be overwritten, got %v", err)
	}
	if st.Label != statex.LabelLegal {
		t.Fatalf("label changed to %s", st.Label)
	}
}

func TestRouteOutOfDomain(t *testing.T) {
	t.Parallel()

	st := loadedState(t, "hello")
	outOfDomain := fmt.Errorf("%w: got %q", contractx.ErrClassificationOutOfDomain, "logical")
	st, err := ClassifyMessage(context.Background(), st, stubClassifier{err: outOfDomain})
	if err != nil {
		t.Fatalf("ClassifyMessage() error = %v", err)
	}

	_, err = RouteMessage(context.Background(), st)
	if !errors.Is(err, contractx.ErrUnroutable) || !errors.Is(err, contractx.ErrClassificationOutOfDomain) {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Phase != contractx.PhaseUnroutable || st.Stage != routerx.StageUnroutable {
		t.Fatalf("unexpected state: phase=%s stage=%s", st.Phase, st.Stage)
	}
}

func TestRespondWithGuards(t *testing.T) {
	t.Parallel()

	st := loadedState(t, "hello")
	st.Label = statex.LabelSales
	st.Stage = routerx.StageSales

	if _, err := RespondWith(context.Background(), st, routerx.StageFinance, stubRegistry{}); !errors.Is(err, contractx.ErrUnroutable) {
		t.Fatalf("expected ErrUnroutable for mismatched stage, got %v", err)
	}

	st, err := RespondWith(context.Background(), st, routerx.StageSales, stubRegistry{})
	if err != nil {
		t.Fatalf("RespondWith() error = %v", err)
	}
	if st.Responded != 1 || len(st.Conversation.Messages) != 2 {
		t.Fatalf("unexpected state: responded=%d messages=%d", st.Responded, len(st.Conversation.Messages))
	}

	if _, err := RespondWith(context.Background(), st, routerx.StageSales, stubRegistry{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("second response must be rejected, got %v", err)
	}
}

func TestFinalizeReplyReturnsOnlyNewAssistantMessages(t *testing.T) {
	t.Parallel()

	st := NewGraphState(GraphInput{ConversationID: "c1", Text: "next"}, testNow)
	st.Conversation = statex.NewConversation("c1", testNow)
	_ = st.Conversation.Append(statex.UserMessage("first"), statex.AssistantMessage("first reply"))
	st.StartLen = len(st.Conversation.Messages)
	_ = st.Conversation.Append(statex.UserMessage("next"), statex.AssistantMessage("next reply"))

	out, err := FinalizeReply(st)
	if err != nil {
		t.Fatalf("FinalizeReply() error = %v", err)
	}
	if out.Phase != contractx.PhaseDone || len(out.Reply) != 1 || out.Reply[0].Content != "next reply" {
		t.Fatalf("unexpected output: %+v", out)
	}
}
