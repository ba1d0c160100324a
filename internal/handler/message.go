package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/middleware"
	"github.com/sakif/gitcord/internal/service"
)

type MessageHandler struct {
	responder
	messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{responder: responder{logger: logger.Named("message")}, messages: messages}
}

// HandleStats handles GET /api/message/get-stats.
func (h *MessageHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.messages.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, stats)
}

// HandleSend handles POST /api/message/send.
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var in service.SendMessageInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	middleware.SetAuditDetail(r.Context(), map[string]string{"recipientId": in.RecipientID, "subject": in.Subject})

	msg, err := h.messages.Send(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusCreated, msg)
}

// HandleInbox handles GET /api/message/inbox?limit=&offset=.
func (h *MessageHandler) HandleInbox(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	msgs, err := h.messages.Inbox(r.Context(), userID, listOptions(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, msgs)
}

// HandleRead handles POST /api/message/read.
func (h *MessageHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.messages.MarkRead(r.Context(), userID, req.ID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, nil)
}
