package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.CodeRepository = (*CodeDB)(nil)

type CodeDB struct {
	conn *sql.DB
}

const codeColumns = `id, code, credit, premium, premium_days, usage_limit, used_count,
	created_by, created_at`

// Create stores a new code. The code string is normalised to uppercase; a
// duplicate yields apperror.ErrConflict.
func (c *CodeDB) Create(ctx context.Context, code *model.Code) error {
	code.ID = xid.New().String()
	code.Code = strings.ToUpper(strings.TrimSpace(code.Code))
	code.CreatedAt = time.Now().UTC()
	if code.UsageLimit < 1 {
		code.UsageLimit = 1
	}

	_, err := c.conn.ExecContext(ctx,
		`INSERT INTO codes (`+codeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		code.ID, code.Code, code.Credit, code.Premium, code.PremiumDays,
		code.UsageLimit, code.UsedCount, code.CreatedBy, code.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ConflictMessage(fmt.Sprintf("code %s already exists", code.Code))
		}
		return fmt.Errorf("sqlite: creating code: %w", err)
	}
	return nil
}

// GetByCode looks a code up case-insensitively.
func (c *CodeDB) GetByCode(ctx context.Context, code string) (*model.Code, error) {
	normalised := strings.ToUpper(strings.TrimSpace(code))
	found, err := scanCode(c.conn.QueryRowContext(ctx,
		`SELECT `+codeColumns+` FROM codes WHERE code = ?`, normalised))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("code", normalised)
		}
		return nil, fmt.Errorf("sqlite: getting code %s: %w", normalised, err)
	}
	return found, nil
}

// List returns every code, newest first. Codes are an admin-sized collection,
// so there is no pagination.
func (c *CodeDB) List(ctx context.Context) ([]model.Code, error) {
	rows, err := c.conn.QueryContext(ctx,
		`SELECT `+codeColumns+` FROM codes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing codes: %w", err)
	}
	defer rows.Close()

	codes := make([]model.Code, 0)
	for rows.Next() {
		found, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning code row: %w", err)
		}
		codes = append(codes, *found)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating codes: %w", err)
	}
	return codes, nil
}

func (c *CodeDB) Delete(ctx context.Context, id string) error {
	result, err := c.conn.ExecContext(ctx, `DELETE FROM codes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting code %s: %w", id, err)
	}
	return expectOneRow(result, "code", id)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCode(s scanner) (*model.Code, error) {
	var code model.Code
	err := s.Scan(
		&code.ID, &code.Code, &code.Credit, &code.Premium, &code.PremiumDays,
		&code.UsageLimit, &code.UsedCount, &code.CreatedBy, &code.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &code, nil
}
