package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/model"
)

// AuditRecorder is satisfied by *service.AuditService.
type AuditRecorder interface {
	Record(ctx context.Context, entry *model.Log)
}

type auditKey struct{}

type auditDetail struct {
	mu  sync.Mutex
	raw json.RawMessage
}

// SetAuditDetail attaches detail to the audit row of the current request.
// It is a no-op outside an Audit-wrapped route or when v cannot be encoded.
func SetAuditDetail(ctx context.Context, v any) {
	d, ok := ctx.Value(auditKey{}).(*auditDetail)
	if !ok {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.raw = raw
	d.mu.Unlock()
}

// Audit appends a Log row for action once the handler has written its
// status. Requests without a session user are not recorded.
func Audit(rec AuditRecorder, action model.LogAction) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			detail := &auditDetail{}
			r = r.WithContext(context.WithValue(r.Context(), auditKey{}, detail))
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			actorID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			detail.mu.Lock()
			raw := detail.raw
			detail.mu.Unlock()

			rec.Record(r.Context(), &model.Log{
				ActorID:    actorID,
				Action:     action,
				Method:     r.Method,
				Endpoint:   r.URL.Path,
				StatusCode: status,
				Detail:     raw,
			})
		})
	}
}
