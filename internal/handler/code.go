package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/middleware"
	"github.com/sakif/gitcord/internal/service"
)

// CodeHandler serves the redemption code endpoints. Create, delete and list
// are mounted behind the moderator check; redeem is open to any session.
type CodeHandler struct {
	responder
	codes *service.CodeService
}

func NewCodeHandler(codes *service.CodeService, logger *zap.Logger) *CodeHandler {
	return &CodeHandler{responder: responder{logger: logger.Named("code")}, codes: codes}
}

// HandleCreate handles POST /api/code/create.
func (h *CodeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateCodeInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, err)
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	code, err := h.codes.Create(r.Context(), actorID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.SetAuditDetail(r.Context(), map[string]any{"code": code.Code, "credit": code.Credit})
	h.writeSuccess(w, http.StatusCreated, code)
}

type idRequest struct {
	ID string `json:"id"`
}

// HandleDelete handles DELETE /api/code/delete with body {"id": "..."}.
func (h *CodeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	middleware.SetAuditDetail(r.Context(), req)

	if err := h.codes.Delete(r.Context(), req.ID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, nil)
}

// HandleList handles GET /api/code/getAll.
func (h *CodeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	codes, err := h.codes.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, codes)
}

type redeemRequest struct {
	Code string `json:"code"`
}

// HandleRedeem handles POST /api/code/redeem.
func (h *CodeHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	middleware.SetAuditDetail(r.Context(), req)

	userID, _ := auth.UserIDFromContext(r.Context())
	result, err := h.codes.Redeem(r.Context(), userID, req.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, result)
}
