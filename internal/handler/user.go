package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/middleware"
	"github.com/sakif/gitcord/internal/service"
)

type UserHandler struct {
	responder
	users *service.UserService
}

func NewUserHandler(users *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{responder: responder{logger: logger.Named("user")}, users: users}
}

type privacyRequest struct {
	IsPrivate *bool `json:"isPrivate"`
}

type privacyResponse struct {
	Success   bool `json:"success"`
	IsPrivate bool `json:"isPrivate"`
}

// HandleUpdatePrivacy handles POST /api/user/updatePrivacy. isPrivate must be
// a JSON boolean; strings such as "true" are rejected.
func (h *UserHandler) HandleUpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	var req privacyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.IsPrivate == nil {
		h.writeError(w, apperror.MissingFields("isPrivate"))
		return
	}
	middleware.SetAuditDetail(r.Context(), req)

	userID, _ := auth.UserIDFromContext(r.Context())
	private, err := h.users.UpdatePrivacy(r.Context(), userID, *req.IsPrivate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, privacyResponse{Success: true, IsPrivate: private})
}
