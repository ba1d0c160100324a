// Package repository declares the persistence contracts. Implementations live
// in sub-packages (sqlite, mongo); services only ever see these interfaces.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sakif/gitcord/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// Upsert inserts or updates by GitHubID, keeping an existing internal ID.
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	SetPrivacy(ctx context.Context, id string, private bool) error
	SetModerator(ctx context.Context, id string, moderator bool) error
	// SetGitHubToken stores the already-encrypted access token.
	SetGitHubToken(ctx context.Context, id string, sealed []byte) error
	GitHubToken(ctx context.Context, id string) ([]byte, error)
	Count(ctx context.Context) (int64, error)
}

type CodeRepository interface {
	// Create returns a conflict error when the code string already exists.
	Create(ctx context.Context, code *model.Code) error
	GetByCode(ctx context.Context, code string) (*model.Code, error)
	// List returns every code, newest first.
	List(ctx context.Context) ([]model.Code, error)
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	ListForRecipient(ctx context.Context, recipientID string, opts ListOptions) ([]model.Message, error)
	// MarkRead is a no-op for an already-read message and a not-found error
	// when the message does not exist or belongs to someone else.
	MarkRead(ctx context.Context, id, recipientID string, at time.Time) error
	Count(ctx context.Context) (total, unread int64, err error)
}

type AuditLogRepository interface {
	Append(ctx context.Context, entry *model.Log) error
	ListByActor(ctx context.Context, actorID string, opts ListOptions) ([]model.Log, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, fb *model.Feedback) error
	List(ctx context.Context, opts ListOptions) ([]model.Feedback, error)
}

// AccountRepository owns the per-user satellites and the one multi-entity
// write, redemption.
type AccountRepository interface {
	Premium(ctx context.Context, userID string) (*model.UserPremium, error)
	Stats(ctx context.Context, userID string) (*model.UserStats, error)
	IncrementProfileViews(ctx context.Context, userID string) error
	// Redeem atomically consumes one use of code for userID.
	Redeem(ctx context.Context, code, userID string, now time.Time) (*model.Redemption, error)
}

// Store groups every repository plus lifecycle hooks, so cmd/ can pick a
// backend by configuration.
type Store interface {
	Users() UserRepository
	Codes() CodeRepository
	Messages() MessageRepository
	AuditLogs() AuditLogRepository
	Feedback() FeedbackRepository
	Accounts() AccountRepository
	Ping(ctx context.Context) error
	Close() error
}

// ClampLimit applies the shared page-size rules: default 20, maximum 100.
func ClampLimit(opts ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ExtendPremium returns the new expiry after adding days to the later of now
// and the current expiry.
func ExtendPremium(current *time.Time, now time.Time, days int) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.AddDate(0, 0, days)
}

// RawDetail normalises an audit detail payload; nil becomes JSON null.
func RawDetail(d json.RawMessage) json.RawMessage {
	if len(d) == 0 {
		return json.RawMessage("null")
	}
	return d
}
