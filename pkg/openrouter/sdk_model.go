package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// SDKChatModel adapts the openai-go client to eino's BaseChatModel so graphs
// can run on either provider.
type SDKChatModel struct {
	client      *openaisdk.Client
	model       string
	temperature float32
	maxTokens   *int
	output      *OutputSchema
}

var _ model.BaseChatModel = (*SDKChatModel)(nil)

func NewSDKChatModel(client *openaisdk.Client, cfg Config) *SDKChatModel {
	return &SDKChatModel{
		client:      client,
		model:       strings.TrimSpace(cfg.Model),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxCompletionToken,
		output:      cfg.OutputSchema,
	}
}

func (m *SDKChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.model,
		Temperature: &m.temperature,
		MaxTokens:   m.maxTokens,
	}, opts...)

	messages, err := toSDKMessages(input)
	if err != nil {
		return nil, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(*options.Model),
		Messages: messages,
	}
	if options.Temperature != nil {
		params.Temperature = openaisdk.Float(float64(*options.Temperature))
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(*options.MaxTokens))
	}

	if m.output != nil {
		jsonSchema := shared.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   m.output.Name,
			Schema: m.output.Schema,
			Strict: openaisdk.Bool(true),
		}
		if m.output.Description != "" {
			jsonSchema.Description = openaisdk.String(m.output.Description)
		}
		params.ResponseFormat = openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{JSONSchema: jsonSchema},
		}
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai sdk: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai sdk: completion has no choices")
	}

	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

func (m *SDKChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("openai sdk: streaming is not supported")
}

func toSDKMessages(input []*schema.Message) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case schema.User:
			out = append(out, openaisdk.UserMessage(msg.Content))
		case schema.Assistant:
			out = append(out, openaisdk.AssistantMessage(msg.Content))
		default:
			return nil, fmt.Errorf("openai sdk: unsupported message role %q", msg.Role)
		}
	}
	return out, nil
}
