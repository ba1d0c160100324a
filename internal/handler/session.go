package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/service"
)

// SessionHandler lets the browser drive the workspace lifecycle: it reports
// route changes and can inspect or clear every store.
type SessionHandler struct {
	responder
	dashboard *service.DashboardService
}

func NewSessionHandler(dashboard *service.DashboardService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{responder: responder{logger: logger.Named("session")}, dashboard: dashboard}
}

type navigateRequest struct {
	Path string `json:"path"`
}

type navigateResponse struct {
	Reset bool `json:"reset"`
}

// HandleNavigate handles POST /api/session/navigate.
func (h *SessionHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		h.writeError(w, apperror.MissingFields("path"))
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	reset, err := h.dashboard.Navigate(r.Context(), userID, req.Path)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, navigateResponse{Reset: reset})
}

// HandleStores handles GET /api/session/stores.
func (h *SessionHandler) HandleStores(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	snap, err := h.dashboard.Snapshot(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, snap)
}

// HandleReset handles DELETE /api/session/stores. ?purge=true also empties
// the user's response cache.
func (h *SessionHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if r.URL.Query().Get("purge") == "true" {
		if err := h.dashboard.PurgeCache(r.Context(), userID); err != nil {
			h.writeError(w, err)
			return
		}
	}
	h.dashboard.ResetStores(userID)
	h.writeSuccess(w, http.StatusOK, nil)
}
