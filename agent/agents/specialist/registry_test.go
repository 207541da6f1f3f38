package specialist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	llmx "github.com/tanpawarit/deptrouter/agent/llm"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

type completionRequest struct {
	ResponseFormat *struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string `json:"name"`
			Strict bool   `json:"strict"`
			Schema struct {
				Type       string   `json:"type"`
				Required   []string `json:"required"`
				Properties map[string]struct {
					Type string   `json:"type"`
					Enum []string `json:"enum"`
				} `json:"properties"`
			} `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

type completionServer struct {
	mu       sync.Mutex
	requests []completionRequest
	content  string
}

func (s *completionServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	content, _ := json.Marshal(s.content)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{
		"id": "cmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "openai/gpt-3.5-turbo",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": ` + string(content) + `}}]
	}`))
}

func TestNewRegistryClassifierRequestsLabelSchema(t *testing.T) {
	t.Parallel()

	for _, provider := range []string{"eino", "sdk"} {
		t.Run(provider, func(t *testing.T) {
			t.Parallel()

			srv := &completionServer{content: `{"message_type": "legal"}`}
			server := httptest.NewServer(srv)
			t.Cleanup(server.Close)

			reg, err := NewRegistry(context.Background(), llmx.Config{
				Provider:           provider,
				BaseURL:            server.URL,
				APIKey:             "key",
				Model:              "openai/gpt-3.5-turbo",
				MaxCompletionToken: 100,
				AgentTemperature:   -1,
			})
			if err != nil {
				t.Fatalf("NewRegistry() error = %v", err)
			}

			out, err := reg.Classifier().Classify(context.Background(), contractx.ClassifyRequest{
				Latest: statex.UserMessage("How do I file a patent for our new product?"),
			})
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if out.Label != statex.LabelLegal {
				t.Fatalf("unexpected label: %s", out.Label)
			}

			srv.mu.Lock()
			defer srv.mu.Unlock()
			if len(srv.requests) != 1 {
				t.Fatalf("expected one request, got %d", len(srv.requests))
			}
			format := srv.requests[0].ResponseFormat
			if format == nil || format.Type != "json_schema" {
				t.Fatalf("classifier request has no json_schema response format: %+v", format)
			}
			if format.JSONSchema.Name != "message_classifier" || !format.JSONSchema.Strict {
				t.Fatalf("unexpected json_schema: %+v", format.JSONSchema)
			}
			if len(format.JSONSchema.Schema.Required) != 1 || format.JSONSchema.Schema.Required[0] != "message_type" {
				t.Fatalf("unexpected required fields: %v", format.JSONSchema.Schema.Required)
			}
			enum := format.JSONSchema.Schema.Properties["message_type"].Enum
			if len(enum) != len(statex.Labels) {
				t.Fatalf("enum = %v, want %d labels", enum, len(statex.Labels))
			}
			for i, label := range statex.Labels {
				if enum[i] != label.String() {
					t.Fatalf("enum[%d] = %q, want %q", i, enum[i], label)
				}
			}
		})
	}
}

func TestNewRegistryAgentRequestHasNoResponseFormat(t *testing.T) {
	t.Parallel()

	srv := &completionServer{content: "Start with a prior-art search."}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	reg, err := NewRegistry(context.Background(), llmx.Config{
		Provider:           "sdk",
		BaseURL:            server.URL,
		APIKey:             "key",
		Model:              "openai/gpt-3.5-turbo",
		MaxCompletionToken: 100,
		AgentTemperature:   -1,
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	agent, ok := reg.Agent(statex.LabelLegal)
	if !ok {
		t.Fatal("legal agent missing")
	}

	if _, err := agent.Respond(context.Background(), contractx.RespondRequest{Latest: statex.UserMessage("How do I file a patent?")}); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.requests) != 1 || srv.requests[0].ResponseFormat != nil {
		t.Fatalf("agent request should carry no response format: %+v", srv.requests)
	}
}
