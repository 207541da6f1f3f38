package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

func TestOpenRouterForRoleOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:                "key",
		Model:                 "default-model",
		Temperature:           0.5,
		MaxCompletionToken:    100,
		ClassifierModel:       "cheap-model",
		ClassifierTemperature: 0,
		AgentTemperature:      -1,
	}

	classifier := cfg.OpenRouterFor(contractx.AgentTypeClassifier)
	if classifier.Model != "cheap-model" || classifier.Temperature != 0 {
		t.Fatalf("unexpected classifier config: %+v", classifier)
	}

	agent := cfg.OpenRouterFor(contractx.AgentTypeDomain)
	if agent.Model != "default-model" || agent.Temperature != 0.5 {
		t.Fatalf("unexpected agent config: %+v", agent)
	}
	if agent.MaxCompletionToken == nil || *agent.MaxCompletionToken != 100 {
		t.Fatalf("unexpected max tokens: %v", agent.MaxCompletionToken)
	}
}

func TestOpenRouterForOutputSchemaOnlyForClassifier(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "key", Model: "m"}

	classifier := cfg.OpenRouterFor(contractx.AgentTypeClassifier)
	if classifier.OutputSchema == nil || classifier.OutputSchema.Schema == nil {
		t.Fatal("classifier config has no output schema")
	}
	prop := classifier.OutputSchema.Schema.Properties["message_type"]
	if prop == nil || prop.Value == nil {
		t.Fatal("schema has no message_type property")
	}
	if len(prop.Value.Enum) != len(statex.Labels) {
		t.Fatalf("enum = %v, want %d labels", prop.Value.Enum, len(statex.Labels))
	}
	for i, label := range statex.Labels {
		if prop.Value.Enum[i] != label.String() {
			t.Fatalf("enum[%d] = %v, want %q", i, prop.Value.Enum[i], label)
		}
	}

	if agent := cfg.OpenRouterFor(contractx.AgentTypeDomain); agent.OutputSchema != nil {
		t.Fatalf("domain config should have no output schema: %+v", agent.OutputSchema)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing key, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m", Provider: "carrier-pigeon"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown provider, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m", Provider: "sdk"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
