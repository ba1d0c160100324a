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

var _ repository.MessageRepository = (*MessageDB)(nil)

type MessageDB struct {
	conn *sql.DB
}

func (m *MessageDB) Create(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()
	msg.Read = false
	msg.ReadAt = nil

	_, err := m.conn.ExecContext(ctx,
		`INSERT INTO messages (id, recipient_id, subject, content, read, read_at, created_at)
		 VALUES (?, ?, ?, ?, 0, NULL, ?)`,
		msg.ID, msg.RecipientID, msg.Subject, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating message: %w", err)
	}
	return nil
}

// ListForRecipient returns one page of a user's inbox, newest first.
func (m *MessageDB) ListForRecipient(ctx context.Context, recipientID string, opts repository.ListOptions) ([]model.Message, error) {
	limit, offset := repository.ClampLimit(opts)

	rows, err := m.conn.QueryContext(ctx,
		`SELECT id, recipient_id, subject, content, read, read_at, created_at
		 FROM messages
		 WHERE recipient_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		recipientID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]model.Message, 0, limit)
	for rows.Next() {
		var (
			msg    model.Message
			readAt sql.NullTime
		)
		if err := rows.Scan(&msg.ID, &msg.RecipientID, &msg.Subject, &msg.Content,
			&msg.Read, &readAt, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		if readAt.Valid {
			t := readAt.Time
			msg.ReadAt = &t
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}
	return msgs, nil
}

// MarkRead keeps the first read_at when called twice.
func (m *MessageDB) MarkRead(ctx context.Context, id, recipientID string, at time.Time) error {
	result, err := m.conn.ExecContext(ctx,
		`UPDATE messages SET read = 1, read_at = COALESCE(read_at, ?)
		 WHERE id = ? AND recipient_id = ?`,
		at.UTC(), id, recipientID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking message %s read: %w", id, err)
	}
	return expectOneRow(result, "message", id)
}

func (m *MessageDB) Count(ctx context.Context) (total, unread int64, err error) {
	err = m.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN read = 0 THEN 1 ELSE 0 END), 0) FROM messages`,
	).Scan(&total, &unread)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite: counting messages: %w", err)
	}
	return total, unread, nil
}
