package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/model"
)

// ModeratorChecker is satisfied by *service.UserService.
type ModeratorChecker interface {
	RequireModerator(ctx context.Context, userID string) (*model.User, error)
}

// RequireModerator must run after auth.RequireAuth. It loads the session's
// user and answers 403 unless that user is a moderator.
func RequireModerator(users ModeratorChecker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if _, err := users.RequireModerator(r.Context(), userID); err != nil {
				if errors.Is(err, apperror.ErrForbidden) {
					writeError(w, http.StatusForbidden, "Forbidden")
					return
				}
				logger.Error("moderator check failed", zap.String("user_id", userID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
