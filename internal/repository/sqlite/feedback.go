package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.FeedbackRepository = (*FeedbackDB)(nil)

type FeedbackDB struct {
	conn *sql.DB
}

func (f *FeedbackDB) Create(ctx context.Context, fb *model.Feedback) error {
	fb.ID = xid.New().String()
	fb.CreatedAt = time.Now().UTC()

	_, err := f.conn.ExecContext(ctx,
		`INSERT INTO feedback (id, user_id, content, consent, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.UserID, fb.Content, fb.Consent, string(fb.Category), fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating feedback: %w", err)
	}
	return nil
}

func (f *FeedbackDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Feedback, error) {
	limit, offset := repository.ClampLimit(opts)

	rows, err := f.conn.QueryContext(ctx,
		`SELECT id, user_id, content, consent, category, created_at
		 FROM feedback ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feedback: %w", err)
	}
	defer rows.Close()

	out := make([]model.Feedback, 0, limit)
	for rows.Next() {
		var (
			fb       model.Feedback
			category string
		)
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.Content, &fb.Consent, &category, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feedback row: %w", err)
		}
		fb.Category = model.FeedbackCategory(category)
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feedback: %w", err)
	}
	return out, nil
}
