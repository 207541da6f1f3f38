package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
	openrouterx "github.com/tanpawarit/deptrouter/pkg/openrouter"
)

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"eino"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-3.5-turbo"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ClassifierModel       string  `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	AgentModel            string  `envconfig:"AGENT_MODEL" split_words:"true"`
	ClassifierTemperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" split_words:"true" default:"0"`
	AgentTemperature      float32 `envconfig:"AGENT_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	switch openrouterx.Provider(strings.TrimSpace(c.Provider)) {
	case openrouterx.ProviderEino, openrouterx.ProviderSDK, "":
	default:
		return fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, c.Provider)
	}
	return nil
}

// OpenRouterFor resolves the model settings of one role. A negative role
// temperature means "use the default temperature".
func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch agentType {
	case contractx.AgentTypeClassifier:
		if v := strings.TrimSpace(c.ClassifierModel); v != "" {
			modelName = v
		}
		if c.ClassifierTemperature >= 0 {
			temp = c.ClassifierTemperature
		}
	case contractx.AgentTypeDomain:
		if v := strings.TrimSpace(c.AgentModel); v != "" {
			modelName = v
		}
		if c.AgentTemperature >= 0 {
			temp = c.AgentTemperature
		}
	}

	var output *openrouterx.OutputSchema
	if agentType == contractx.AgentTypeClassifier {
		output = ClassifierOutputSchema()
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		Provider:           openrouterx.Provider(strings.TrimSpace(c.Provider)),
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
		OutputSchema:       output,
	}
}

// ClassifierOutputSchema constrains a classifier reply to
// {"message_type": <one of statex.Labels>}.
func ClassifierOutputSchema() *openrouterx.OutputSchema {
	enum := make([]any, 0, len(statex.Labels))
	for _, label := range statex.Labels {
		enum = append(enum, label.String())
	}

	schema := openapi3.NewObjectSchema().
		WithProperty("message_type", openapi3.NewStringSchema().WithEnum(enum...)).
		WithoutAdditionalProperties()
	schema.Required = []string{"message_type"}

	return &openrouterx.OutputSchema{
		Name:        "message_classifier",
		Description: "Department that should handle the latest user message.",
		Schema:      schema,
	}
}
