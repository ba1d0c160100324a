package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by repository.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth answers GET /healthz: 200 when the database responds, 503
// otherwise.
func HandleHealth(db Pinger, logger *zap.Logger) http.HandlerFunc {
	rs := responder{logger: logger}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			rs.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		rs.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
