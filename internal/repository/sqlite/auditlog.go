package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.AuditLogRepository = (*AuditLogDB)(nil)

type AuditLogDB struct {
	conn *sql.DB
}

// Append writes one audit row. Rows are never updated or deleted.
func (a *AuditLogDB) Append(ctx context.Context, entry *model.Log) error {
	if !entry.Action.Valid() {
		return apperror.ValidationFailed("action", fmt.Sprintf("unknown log action %q", entry.Action))
	}
	if !model.ValidLogMethod(entry.Method) {
		return apperror.ValidationFailed("method", fmt.Sprintf("unsupported log method %q", entry.Method))
	}

	entry.ID = xid.New().String()
	entry.CreatedAt = time.Now().UTC()
	entry.Detail = repository.RawDetail(entry.Detail)

	_, err := a.conn.ExecContext(ctx,
		`INSERT INTO logs (id, actor_id, action, method, endpoint, status_code, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActorID, string(entry.Action), entry.Method, entry.Endpoint,
		entry.StatusCode, string(entry.Detail), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: appending log: %w", err)
	}
	return nil
}

func (a *AuditLogDB) ListByActor(ctx context.Context, actorID string, opts repository.ListOptions) ([]model.Log, error) {
	limit, offset := repository.ClampLimit(opts)

	rows, err := a.conn.QueryContext(ctx,
		`SELECT id, actor_id, action, method, endpoint, status_code, detail, created_at
		 FROM logs WHERE actor_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		actorID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing logs: %w", err)
	}
	defer rows.Close()

	entries := make([]model.Log, 0, limit)
	for rows.Next() {
		var (
			entry  model.Log
			action string
			detail string
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &action, &entry.Method,
			&entry.Endpoint, &entry.StatusCode, &detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning log row: %w", err)
		}
		entry.Action = model.LogAction(action)
		entry.Detail = json.RawMessage(detail)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating logs: %w", err)
	}
	return entries, nil
}
