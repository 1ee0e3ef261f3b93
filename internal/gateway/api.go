// ABOUTME: HTTP API handlers for the interview gateway REST surface
// ABOUTME: Health, question intake, conversation listing/clearing, and config reload

package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/2389/interview-gateway/internal/config"
	"github.com/2389/interview-gateway/internal/conversation"
	"github.com/2389/interview-gateway/internal/store"
)

// SubmitQuestionRequest is the JSON request body for POST /api/question.
// GenerateAnswer defaults to true when omitted.
type SubmitQuestionRequest struct {
	Question       string `json:"question"`
	GenerateAnswer *bool  `json:"generate_answer"`
}

// SubmitQuestionResponse is the JSON response for POST /api/question.
type SubmitQuestionResponse struct {
	Success      bool                `json:"success"`
	Conversation *store.Conversation `json:"conversation"`
}

// ConversationListResponse is the JSON response for GET /api/conversations.
type ConversationListResponse struct {
	Conversations []*store.Conversation `json:"conversations"`
	Total         int                   `json:"total"`
}

// ActionResponse is the JSON response for operations that return a message.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ReloadConfigResponse is the JSON response for POST /api/reload-config.
type ReloadConfigResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Config  map[string]any `json:"config"`
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status          string         `json:"status"`
	Timestamp       string         `json:"timestamp"`
	GeminiAvailable bool           `json:"gemini_available"`
	Config          map[string]any `json:"config"`
}

// errorResponse is the JSON error body shared by all endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

// handleHealth handles GET /health: process status, provider availability,
// and a sanitized config echo.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	g.sendJSON(w, http.StatusOK, HealthResponse{
		Status:          "healthy",
		Timestamp:       time.Now().Format(time.RFC3339),
		GeminiAvailable: g.service.ProviderAvailable(),
		Config:          g.config().Sanitized(),
	})
}

// handleQuestion handles POST /api/question: validate, optionally generate
// an answer, store, broadcast, respond.
func (g *Gateway) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseSubmitRequest(r.Body)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	generateAnswer := true
	if req.GenerateAnswer != nil {
		generateAnswer = *req.GenerateAnswer
	}

	conv, err := g.service.SubmitQuestion(r.Context(), req.Question, generateAnswer)
	if errors.Is(err, conversation.ErrEmptyQuestion) {
		g.sendJSONError(w, http.StatusBadRequest, "question must not be empty")
		return
	}
	if err != nil {
		g.logger.Error("question submission failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "server error")
		return
	}

	g.sendJSON(w, http.StatusOK, SubmitQuestionResponse{
		Success:      true,
		Conversation: conv,
	})
}

// parseSubmitRequest decodes and minimally validates the question body.
func parseSubmitRequest(body io.Reader) (*SubmitQuestionRequest, error) {
	var req SubmitQuestionRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if req.Question == "" {
		return nil, errors.New("missing question")
	}
	return &req, nil
}

// handleConversations handles GET (list) and DELETE (clear all) on
// /api/conversations.
func (g *Gateway) handleConversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		conversations := g.service.ListConversations()
		g.sendJSON(w, http.StatusOK, ConversationListResponse{
			Conversations: conversations,
			Total:         len(conversations),
		})
	case http.MethodDelete:
		g.service.ClearAll()
		g.sendJSON(w, http.StatusOK, ActionResponse{
			Success: true,
			Message: "conversation history cleared",
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleReloadConfig handles POST /api/reload-config: build a fresh config
// snapshot from the environment, swap it in, and reconstruct the provider
// from the new snapshot.
func (g *Gateway) handleReloadConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		g.logger.Error("config reload failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "config reload failed")
		return
	}
	g.cfg.Store(cfg)

	client := g.buildProvider(cfg)
	g.gemini.Store(client)
	if client != nil {
		g.service.SetProvider(client)
	} else {
		g.service.SetProvider(nil)
	}

	g.logger.Info("config reloaded", "environment", cfg.Environment)

	echo := cfg.Sanitized()
	echo["gemini_available"] = g.service.ProviderAvailable()
	g.sendJSON(w, http.StatusOK, ReloadConfigResponse{
		Success: true,
		Message: "config reloaded",
		Config:  echo,
	})
}

// sendJSON writes a JSON response with the given status code.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("encoding response failed", "error", err)
	}
}

// sendJSONError writes a JSON error body with the given status code.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.sendJSON(w, status, errorResponse{Error: message})
}
