package handler

import (
	"context"
	"net/http"

	"github.com/workbridge/backend/internal/service"
)

// MessageHandler はワークスペースのメッセージの HTTP ハンドラ
type MessageHandler struct {
	messageService service.MessageService
}

// NewMessageHandler は MessageHandler を生成する
func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// List は GET /api/projects/{id}/messages を処理する（古い順）
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := caller(r)
	messages, err := h.messageService.List(r.Context(), userID, isAdmin, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendClient は POST /api/client/projects/{id}/messages を処理する
func (h *MessageHandler) SendClient(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.messageService.SendClient)
}

// SendTalent は POST /api/talent/projects/{id}/messages を処理する
func (h *MessageHandler) SendTalent(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.messageService.SendTalent)
}

func (h *MessageHandler) send(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, projectID, body string) (service.Outcome, error)) {
	userID, _ := caller(r)
	bag, err := readForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	projectID := r.PathValue("id")
	out, err := fn(r.Context(), userID, projectID, bag.Get("body"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOutcome(w, projectID, out)
}
