package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/docqa/internal/chat"
	"github.com/dgallion1/docqa/internal/llm"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Status   string `json:"status"`
}

const maxChatBody = 1 << 20

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			chatError(w, "Message too long. Please try a shorter message.", http.StatusRequestEntityTooLarge)
			return
		}
		chatError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		chatError(w, "No message provided", http.StatusBadRequest)
		return
	}

	reply, err := s.chat.Reply(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			chatError(w, "No message provided", http.StatusBadRequest)
			return
		}
		s.log.Error("chat failed", "error", err, "provider_status", llm.StatusCode(err))
		msg, code := chatFailure(err)
		chatError(w, msg, code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(chatResponse{Response: reply, Status: "success"})
}

// chatFailure maps a provider failure to a user-facing message and status.
func chatFailure(err error) (string, int) {
	switch {
	case llm.IsPayloadTooLarge(err):
		return "Message too long. Please try a shorter message.", http.StatusRequestEntityTooLarge
	case llm.IsRateLimited(err):
		return "Too many requests. Please wait a moment and try again.", http.StatusTooManyRequests
	default:
		return "Error processing chat request", http.StatusInternalServerError
	}
}

func chatError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(chatResponse{Error: msg, Status: "error"})
}
