package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"messages"`
}

func newSDKTestModel(t *testing.T, status int, body string, got *capturedRequest) *SDKChatModel {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	cfg := Config{
		Provider: ProviderSDK,
		BaseURL:  server.URL,
		APIKey:   "key",
		Model:    "openai/gpt-3.5-turbo",
	}
	m, err := cfg.New(context.Background())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sdk, ok := m.(*SDKChatModel)
	if !ok {
		t.Fatalf("unexpected model type %T", m)
	}
	return sdk
}

func TestSDKChatModelGenerate(t *testing.T) {
	t.Parallel()

	var got capturedRequest
	m := newSDKTestModel(t, http.StatusOK, `{
		"id": "cmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "openai/gpt-3.5-turbo",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "File a provisional patent first."}}]
	}`, &got)

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("You are the legal advisor."),
		schema.UserMessage("How do I file a patent for our new product?"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Role != schema.Assistant || out.Content != "File a provisional patent first." {
		t.Fatalf("unexpected message: %+v", out)
	}
	if got.Model != "openai/gpt-3.5-turbo" {
		t.Fatalf("unexpected model: %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestSDKChatModelProviderError(t *testing.T) {
	t.Parallel()

	m := newSDKTestModel(t, http.StatusBadRequest, `{"error":{"message":"bad model","type":"invalid_request_error"}}`, nil)

	if _, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}); err == nil {
		t.Fatal("expected error for provider failure")
	}
}

func TestSDKChatModelNoChoices(t *testing.T) {
	t.Parallel()

	m := newSDKTestModel(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`, nil)

	if _, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewUnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := Config{Provider: "fax", APIKey: "k", Model: "m"}
	if _, err := cfg.New(context.Background()); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
