package webchat

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/pkg/llm"
)

// fallbackText is the fixed user-facing message for internal failures.
// Raw errors are logged server-side and never reach the browser.
const fallbackText = "Mi dispiace, si è verificato un problema tecnico. Riprova tra poco. / " +
	"Sorry, something went wrong on our side. Please try again in a moment."

// Server is the chat HTTP boundary. It keeps no conversation state:
// the client resends the full message history on every turn.
type Server struct {
	orch *assistant.Orchestrator
	mux  *http.ServeMux
}

// NewServer creates the chat server around an orchestrator.
func NewServer(orch *assistant.Orchestrator) *Server {
	s := &Server{
		orch: orch,
		mux:  http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /chat/stream", s.handleChatStream)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// chatRequest is the JSON body for POST /chat. The history must already
// include the new user message as its last entry.
type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the JSON reply for POST /chat.
type chatResponse struct {
	Text      string                     `json:"text"`
	ToolCalls []assistant.ToolInvocation `json:"toolCalls,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	history, ok := s.decodeHistory(w, r)
	if !ok {
		return
	}

	result, err := s.orch.Run(r.Context(), history)
	if err != nil {
		slog.Error("chat turn failed", "error", err)
		writeJSON(w, http.StatusBadGateway, chatResponse{
			Text:  fallbackText,
			Error: "assistant temporarily unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Text:      result.Text,
		ToolCalls: result.Invocations,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	history, ok := s.decodeHistory(w, r)
	if !ok {
		return
	}

	result, err := s.orch.Run(r.Context(), history)
	if err != nil {
		slog.Error("chat stream turn failed", "error", err)
		writeJSON(w, http.StatusBadGateway, chatResponse{
			Text:  fallbackText,
			Error: "assistant temporarily unavailable",
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	const chunkSize = 64
	runes := []rune(result.Text)
	for start := 0; start < len(runes); start += chunkSize {
		end := min(start+chunkSize, len(runes))
		if _, err := w.Write([]byte(string(runes[start:end]))); err != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

// decodeHistory parses and validates the request body. On failure it
// writes the error response itself and returns ok=false.
func (s *Server) decodeHistory(w http.ResponseWriter, r *http.Request) ([]llm.Message, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Text: fallbackText, Error: "invalid JSON"})
		return nil, false
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, chatResponse{Text: fallbackText, Error: "messages is required"})
		return nil, false
	}

	history := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			writeJSON(w, http.StatusBadRequest, chatResponse{Text: fallbackText, Error: "roles must be user or assistant"})
			return nil, false
		}
		history = append(history, llm.TextMessage(m.Role, m.Content))
	}
	if history[len(history)-1].Role != llm.RoleUser {
		writeJSON(w, http.StatusBadRequest, chatResponse{Text: fallbackText, Error: "last message must be from the user"})
		return nil, false
	}
	return history, true
}

func writeJSON(w http.ResponseWriter, status int, body chatResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
