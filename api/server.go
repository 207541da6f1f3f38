// Package api exposes the orchestrator over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/deptrouter/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

// Conversations is what the HTTP boundary needs from the orchestrator.
type Conversations interface {
	HandleMessage(ctx context.Context, conversationID string, text string) (orchestratorx.Result, error)
	Conversation(ctx context.Context, conversationID string) (*statex.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

type server struct {
	conversations Conversations
	metrics       http.Handler
	newID         func() string
}

type Option func(*server)

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *server) {
		s.metrics = h
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *server) {
		s.newID = fn
	}
}

type messageRequest struct {
	Content string `json:"content"`
}

type createResponse struct {
	ConversationID string `json:"conversation_id"`
}

type errorResponse struct {
	Error string          `json:"error"`
	Phase contractx.Phase `json:"phase,omitempty"`
}

func NewRouter(conversations Conversations, opts ...Option) *mux.Router {
	s := &server{
		conversations: conversations,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/conversations", s.createConversation).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/messages", s.postMessage).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}", s.getConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}", s.deleteConversation).Methods(http.MethodDelete)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	return r
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) createConversation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, createResponse{ConversationID: s.newID()})
}

func (s *server) postMessage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id := strings.TrimSpace(mux.Vars(r)["id"])

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "content is required"})
		return
	}

	res, err := s.conversations.HandleMessage(r.Context(), id, req.Content)
	if err != nil {
		status := statusFor(err)
		log.Error().
			Err(err).
			Str("conversation_id", id).
			Str("label", res.Label.String()).
			Str("phase", string(res.Phase)).
			Int("status", status).
			Msg("message handling failed")
		writeJSON(w, status, errorResponse{Error: err.Error(), Phase: res.Phase})
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *server) getConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	conv, err := s.conversations.Conversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, statex.ErrStateNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "conversation not found"})
			return
		}
		log.Error().Err(err).Str("conversation_id", id).Msg("load conversation failed")
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (s *server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.conversations.DeleteConversation(r.Context(), id); err != nil {
		log.Error().Err(err).Str("conversation_id", id).Msg("delete conversation failed")
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps run errors to HTTP status codes. Unroutable is checked first
// because out-of-domain runs wrap both sentinels.
func statusFor(err error) int {
	switch {
	case errors.Is(err, contractx.ErrUnroutable), errors.Is(err, contractx.ErrClassificationOutOfDomain):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contractx.ErrValidation), errors.Is(err, statex.ErrInvalidConversation):
		return http.StatusBadRequest
	case errors.Is(err, contractx.ErrProviderFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}
