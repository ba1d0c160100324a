package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/middleware"
	"github.com/sakif/gitcord/internal/service"
)

type FeedbackHandler struct {
	responder
	feedback *service.FeedbackService
}

func NewFeedbackHandler(feedback *service.FeedbackService, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{responder: responder{logger: logger.Named("feedback")}, feedback: feedback}
}

// HandleSubmit handles POST /api/feedback.
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in service.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	middleware.SetAuditDetail(r.Context(), map[string]string{"category": string(in.Category)})

	userID, _ := auth.UserIDFromContext(r.Context())
	fb, err := h.feedback.Submit(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusCreated, fb)
}

// HandleList handles GET /api/feedback for moderators.
func (h *FeedbackHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.feedback.List(r.Context(), listOptions(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, list)
}
