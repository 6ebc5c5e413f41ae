package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"mailstash/internal/store"
)

// maxMessageSize caps uploads at 25 MiB, in line with common MTA limits.
const maxMessageSize = 25 << 20

type Handler struct {
	store *store.Store
	log   logrus.FieldLogger
}

func NewHandler(s *store.Store, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{store: s, log: log}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	count, size, err := h.store.Stats()
	if err != nil {
		h.log.Errorf("failed to read statistics: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages":   count,
		"totalBytes": size,
	})
}

func (h *Handler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.List()
	if err != nil {
		h.log.Errorf("failed to list messages: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) UploadMessageHandler(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(content) == 0 {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}
	if len(content) > maxMessageSize {
		http.Error(w, "message too large", http.StatusRequestEntityTooLarge)
		return
	}

	msg, err := h.store.Put(r.Context(), content)
	if err != nil {
		h.log.Errorf("failed to store message: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) GetMessageHandler(w http.ResponseWriter, r *http.Request, uid string) {
	msg, content, err := h.store.Get(r.Context(), uid)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Errorf("failed to fetch message %s: %v", uid, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("ETag", `"`+msg.Digest+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.log.Debugf("failed to write message %s: %v", uid, err)
	}
}

func (h *Handler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request, uid string) {
	err := h.store.Delete(r.Context(), uid)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Errorf("failed to delete message %s: %v", uid, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
