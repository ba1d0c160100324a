package handler

// Every JSON endpoint answers with one of two envelopes:
//
//	{"success": true, "data": ...}   on success (data omitted when there is none)
//	{"error": "human readable"}      on failure, with the mapped status code
//
// Domain errors from the service layer are *apperror.AppError values; the
// sentinel they wrap decides the status. Anything else is a 500 whose cause
// is logged and never sent to the client.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/repository"
)

const maxBodyBytes = 1 << 20

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// responder writes the envelopes and logs what cannot be sent to the client.
// Handlers embed it.
type responder struct {
	logger *zap.Logger
}

func (rs responder) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all that is left is to log it.
			rs.logger.Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

func (rs responder) writeSuccess(w http.ResponseWriter, status int, data any) {
	rs.writeJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (rs responder) writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		rs.writeJSON(w, statusFor(err), ErrorResponse{Error: appErr.Message})
		return
	}

	rs.logger.Error("internal error", zap.Error(err))
	rs.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// decodeJSON reads a JSON body into dst. Malformed bodies and fields of the
// wrong type are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body must not be empty")
		case errors.As(err, &typeErr):
			return apperror.ValidationFailed(typeErr.Field,
				fmt.Sprintf("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type.Kind().String())))
		default:
			return apperror.ValidationFailed("body", "request body must be valid JSON")
		}
	}
	return nil
}

func jsonKind(goKind string) string {
	switch goKind {
	case "bool":
		return "boolean"
	case "int", "int64", "float64":
		return "number"
	default:
		return goKind
	}
}

// listOptions reads ?limit= and ?offset=; bad values fall back to defaults.
func listOptions(r *http.Request) repository.ListOptions {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return repository.ListOptions{Limit: limit, Offset: offset}
}
