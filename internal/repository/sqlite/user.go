package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, github_id, username, email, name, avatar_url, role,
	is_moderator, is_private, created_at, updated_at`

// Upsert inserts or updates a user keyed by GitHub ID.
//
// An existing row keeps its internal ID, role and flags; only the profile
// fields GitHub owns (username, email, name, avatar) are refreshed. After the
// call user reflects the stored row.
func (u *UserDB) Upsert(ctx context.Context, user *model.User) error {
	var existingID string
	err := u.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	now := time.Now().UTC()

	if existingID != "" {
		_, err = u.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, email = ?, name = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Username, nullString(user.Email), user.Name, user.AvatarURL, now, existingID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Username)
			}
			return fmt.Errorf("sqlite: updating user %s: %w", existingID, err)
		}
	} else {
		existingID = xid.New().String()
		role := user.Role
		if role == "" {
			role = model.RoleUser
		}
		_, err = u.conn.ExecContext(ctx,
			`INSERT INTO users (id, github_id, username, email, name, avatar_url, role,
			                    is_moderator, is_private, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			existingID, user.GitHubID, user.Username, nullString(user.Email), user.Name,
			user.AvatarURL, role, user.IsModerator, user.IsPrivate, now, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Username)
			}
			return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
		}
	}

	stored, err := u.GetByID(ctx, existingID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetByID retrieves a user by internal ID, or apperror.ErrNotFound.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByUsername matches case-insensitively, as GitHub logins do.
func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return user, nil
}

func (u *UserDB) SetPrivacy(ctx context.Context, id string, private bool) error {
	return u.updateFlag(ctx, id, "is_private", private)
}

func (u *UserDB) SetModerator(ctx context.Context, id string, moderator bool) error {
	return u.updateFlag(ctx, id, "is_moderator", moderator)
}

// updateFlag sets one boolean column. column is never user input.
func (u *UserDB) updateFlag(ctx context.Context, id, column string, value bool) error {
	result, err := u.conn.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s for user %s: %w", column, id, err)
	}
	return expectOneRow(result, "user", id)
}

func (u *UserDB) SetGitHubToken(ctx context.Context, id string, sealed []byte) error {
	result, err := u.conn.ExecContext(ctx,
		`UPDATE users SET github_token = ? WHERE id = ?`, sealed, id)
	if err != nil {
		return fmt.Errorf("sqlite: storing github token for user %s: %w", id, err)
	}
	return expectOneRow(result, "user", id)
}

// GitHubToken returns the sealed token, or nil if none was ever stored.
func (u *UserDB) GitHubToken(ctx context.Context, id string) ([]byte, error) {
	var sealed []byte
	err := u.conn.QueryRowContext(ctx,
		`SELECT github_token FROM users WHERE id = ?`, id).Scan(&sealed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: reading github token for user %s: %w", id, err)
	}
	return sealed, nil
}

func (u *UserDB) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := u.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return n, nil
}

func scanUser(row scanner) (*model.User, error) {
	var (
		user  model.User
		email sql.NullString
	)
	err := row.Scan(
		&user.ID, &user.GitHubID, &user.Username, &email, &user.Name, &user.AvatarURL,
		&user.Role, &user.IsModerator, &user.IsPrivate, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Email = email.String
	return &user, nil
}

// expectOneRow turns "no rows affected" into a not-found error.
func expectOneRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
