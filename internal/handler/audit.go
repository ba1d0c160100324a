package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/service"
)

// AuditHandler lets moderators read the admin activity log.
type AuditHandler struct {
	responder
	audit *service.AuditService
}

func NewAuditHandler(audit *service.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{responder: responder{logger: logger.Named("audit")}, audit: audit}
}

// HandleList handles GET /api/logs?actorId=&limit=&offset=. Without actorId
// it lists the caller's own entries.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actorID := strings.TrimSpace(r.URL.Query().Get("actorId"))
	if actorID == "" {
		actorID, _ = auth.UserIDFromContext(r.Context())
	}
	logs, err := h.audit.ListByActor(r.Context(), actorID, listOptions(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, logs)
}
