package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	promptx "github.com/tanpawarit/deptrouter/agent/prompt"
	statex "github.com/tanpawarit/deptrouter/agent/state"
	toolx "github.com/tanpawarit/deptrouter/agent/tool"
)

// domainAgent is the single templated responder; the eight departments differ
// only in label, persona and template data.
type domainAgent struct {
	label     statex.Label
	persona   *promptx.Persona
	positions contractx.PositionsLookup
	runner    compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.DomainAgent = (*domainAgent)(nil)

func newDomainAgent(
	ctx context.Context,
	label statex.Label,
	chatModel einomodel.BaseChatModel,
	personaSource string,
	positions contractx.PositionsLookup,
) (*domainAgent, error) {
	if !label.Valid() {
		return nil, fmt.Errorf("%w: unknown agent label %q", contractx.ErrValidation, label)
	}
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required for agent=%s", contractx.ErrValidation, label)
	}
	if strings.TrimSpace(personaSource) == "" {
		return nil, fmt.Errorf("%w: persona=%s", contractx.ErrPromptMissing, label)
	}

	persona, err := promptx.CompilePersona(personaSource)
	if err != nil {
		return nil, fmt.Errorf("%w: persona=%s: %v", contractx.ErrPromptMissing, label, err)
	}

	runner, err := compilePersonaGraph(ctx, chatModel, "specialist."+label.String())
	if err != nil {
		return nil, fmt.Errorf("compile agent=%s: %w", label, err)
	}

	return &domainAgent{
		label:     label,
		persona:   persona,
		positions: positions,
		runner:    runner,
	}, nil
}

func (a *domainAgent) Label() statex.Label {
	return a.label
}

// Respond makes exactly one model call and returns its text as an assistant
// message. Prior history is never read.
func (a *domainAgent) Respond(ctx context.Context, req contractx.RespondRequest) (statex.Message, error) {
	if req.Latest.Role != statex.RoleUser {
		return statex.Message{}, fmt.Errorf("%w: latest message role=%s, want user", contractx.ErrValidation, req.Latest.Role)
	}
	if strings.TrimSpace(req.Latest.Content) == "" {
		return statex.Message{}, fmt.Errorf("%w: latest message is empty", contractx.ErrValidation)
	}

	persona, err := a.renderPersona()
	if err != nil {
		return statex.Message{}, err
	}

	out, err := a.runner.Invoke(ctx, map[string]any{
		"persona": persona,
		"input":   req.Latest.Content,
	})
	if err != nil {
		return statex.Message{}, fmt.Errorf("%w: agent=%s invoke: %v", contractx.ErrProviderFailure, a.label, err)
	}
	if out == nil {
		return statex.Message{}, fmt.Errorf("%w: agent=%s returned no message", contractx.ErrProviderFailure, a.label)
	}

	reply := strings.TrimSpace(out.Content)
	if reply == "" {
		return statex.Message{}, fmt.Errorf("%w: agent=%s returned an empty reply", contractx.ErrProviderFailure, a.label)
	}
	return statex.AssistantMessage(reply), nil
}

func (a *domainAgent) renderPersona() (string, error) {
	data := map[string]any{}
	if a.positions != nil {
		positions := a.positions()
		data[toolx.ToolAvailablePositions] = positions
		log.Debug().Str("agent", a.label.String()).Str("tool", toolx.ToolAvailablePositions).Msg("persona lookup spliced")
	}

	text, err := a.persona.Render(data)
	if err != nil {
		return "", fmt.Errorf("%w: persona=%s: %v", contractx.ErrPromptMissing, a.label, err)
	}
	return text, nil
}
