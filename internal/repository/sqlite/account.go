package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.AccountRepository = (*AccountDB)(nil)

type AccountDB struct {
	conn *sql.DB
}

// querier is the subset of *sql.DB and *sql.Tx the account queries need.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Premium returns the user's premium row; a user without one reads as
// not premium.
func (a *AccountDB) Premium(ctx context.Context, userID string) (*model.UserPremium, error) {
	return premiumOf(ctx, a.conn, userID)
}

func (a *AccountDB) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	return statsOf(ctx, a.conn, userID)
}

func (a *AccountDB) IncrementProfileViews(ctx context.Context, userID string) error {
	_, err := a.conn.ExecContext(ctx,
		`INSERT INTO user_stats (user_id, profile_views) VALUES (?, 1)
		 ON CONFLICT(user_id) DO UPDATE SET profile_views = profile_views + 1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing profile views for %s: %w", userID, err)
	}
	return nil
}

// Redeem consumes one use of a code inside a single transaction:
//
//  1. look the code up (case-insensitive), 404 if absent
//  2. refuse with 409 if it is exhausted or this user already redeemed it
//  3. bump used_count, credit the user, extend premium when the code grants it
//
// The used_count guard in the UPDATE keeps concurrent redemptions from
// overshooting usage_limit.
func (a *AccountDB) Redeem(ctx context.Context, code, userID string, now time.Time) (*model.Redemption, error) {
	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning redeem tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	normalised := strings.ToUpper(strings.TrimSpace(code))
	found, err := scanCode(tx.QueryRowContext(ctx,
		`SELECT `+codeColumns+` FROM codes WHERE code = ?`, normalised))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("code", normalised)
		}
		return nil, fmt.Errorf("sqlite: loading code %s: %w", normalised, err)
	}
	if found.Exhausted() {
		return nil, apperror.ConflictMessage(fmt.Sprintf("code %s has no uses left", found.Code))
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO code_redemptions (code_id, user_id, redeemed_at) VALUES (?, ?, ?)`,
		found.ID, userID, now.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.ConflictMessage(fmt.Sprintf("code %s already redeemed", found.Code))
		}
		return nil, fmt.Errorf("sqlite: recording redemption: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE codes SET used_count = used_count + 1 WHERE id = ? AND used_count < usage_limit`,
		found.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: consuming code %s: %w", found.Code, err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	} else if n == 0 {
		return nil, apperror.ConflictMessage(fmt.Sprintf("code %s has no uses left", found.Code))
	}
	found.UsedCount++

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_stats (user_id, credits) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET credits = credits + excluded.credits`,
		userID, found.Credit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: crediting user %s: %w", userID, err)
	}

	if found.Premium && found.PremiumDays > 0 {
		current, err := premiumOf(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		var currentExpiry *time.Time
		if current.IsPremium {
			currentExpiry = current.ExpiresAt
		}
		expires := repository.ExtendPremium(currentExpiry, now.UTC(), found.PremiumDays)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_premium (user_id, is_premium, expires_at) VALUES (?, 1, ?)
			 ON CONFLICT(user_id) DO UPDATE SET is_premium = 1, expires_at = excluded.expires_at`,
			userID, expires,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: extending premium for %s: %w", userID, err)
		}
	}

	stats, err := statsOf(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	premium, err := premiumOf(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing redeem tx: %w", err)
	}

	return &model.Redemption{Code: found, Stats: stats, Premium: premium}, nil
}

func premiumOf(ctx context.Context, q querier, userID string) (*model.UserPremium, error) {
	p := &model.UserPremium{UserID: userID}
	var expires sql.NullTime
	err := q.QueryRowContext(ctx,
		`SELECT is_premium, expires_at FROM user_premium WHERE user_id = ?`, userID,
	).Scan(&p.IsPremium, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, nil
		}
		return nil, fmt.Errorf("sqlite: loading premium for %s: %w", userID, err)
	}
	if expires.Valid {
		t := expires.Time
		p.ExpiresAt = &t
	}
	return p, nil
}

func statsOf(ctx context.Context, q querier, userID string) (*model.UserStats, error) {
	s := &model.UserStats{UserID: userID}
	err := q.QueryRowContext(ctx,
		`SELECT credits, profile_views FROM user_stats WHERE user_id = ?`, userID,
	).Scan(&s.Credits, &s.ProfileViews)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: loading stats for %s: %w", userID, err)
	}
	return s, nil
}
