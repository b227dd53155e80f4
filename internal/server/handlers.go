package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/model"
	"github.com/Taichi-iskw/voice-support/internal/service/chat"
)

// ChatHandler exposes ChatService over HTTP
type ChatHandler struct {
	chat          chat.ChatService
	maxAudioBytes int64
}

// NewChatHandler creates a ChatHandler accepting uploads up to maxAudioBytes
func NewChatHandler(svc chat.ChatService, maxAudioBytes int64) *ChatHandler {
	return &ChatHandler{chat: svc, maxAudioBytes: maxAudioBytes}
}

// Recognize accepts multipart form fields "audio" (file) and "role"
func (h *ChatHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxAudioBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxAudioBytes); err != nil {
		jsonError(w, errors.Wrap(err, errors.CodeInvalidArg, "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		jsonError(w, errors.Wrap(err, errors.CodeInvalidArg, "audio file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxAudioBytes+1))
	if err != nil {
		jsonError(w, errors.Wrap(err, errors.CodeInvalidArg, "failed to read audio"))
		return
	}
	if int64(len(data)) > h.maxAudioBytes {
		jsonError(w, errors.New(errors.CodeInvalidArg, fmt.Sprintf("audio exceeds %d bytes", h.maxAudioBytes)))
		return
	}

	clip := model.AudioClip{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	msg, err := h.chat.Recognize(r.Context(), sessionID, model.Role(r.FormValue("role")), clip)
	if err != nil {
		jsonError(w, err)
		return
	}
	jsonResponse(w, msg, http.StatusCreated)
}

// ListMessages returns the session history
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chat.History(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, err)
		return
	}
	if messages == nil {
		messages = []*model.ChatMessage{}
	}
	jsonResponse(w, messages, http.StatusOK)
}

// ClearMessages deletes the session history
func (h *ChatHandler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	if _, err := h.chat.Clear(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		jsonError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sentimentRequest struct {
	Text string `json:"text"`
}

// Sentiment scores the posted text
func (h *ChatHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, errors.Wrap(err, errors.CodeInvalidArg, "invalid JSON body"))
		return
	}

	result, err := h.chat.Sentiment(r.Context(), req.Text)
	if err != nil {
		jsonError(w, err)
		return
	}
	jsonResponse(w, result, http.StatusOK)
}

// Health reports liveness
func Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}
