// Package sqlite implements the repository interfaces on SQLite.
//
// WHY SQLITE?
// Gitcord's own data is small: users, redemption codes, messages and an audit
// trail. An embedded database keeps the default deployment to a single binary
// and a single file, and ":memory:" gives every test a fresh database.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// modernc is a pure Go translation of SQLite, so no C toolchain is needed and
// cross-compiling the CLI stays trivial.
//
// LAYOUT:
// DB owns the *sql.DB pool and the schema. Each repository interface is served
// by a small type (UserDB, CodeDB, ...) that shares the pool; DB.Users(),
// DB.Codes() and friends hand them out. This keeps method names like Create
// and Delete unambiguous per entity.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// Importing the driver package also registers "sqlite" with database/sql.
	driver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.Store = (*DB)(nil)

type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/gitcord.db" -> file-based database (persistent)
//   - ":memory:"        -> in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would otherwise get its own
	// empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() repository.UserRepository         { return &UserDB{conn: db.conn} }
func (db *DB) Codes() repository.CodeRepository         { return &CodeDB{conn: db.conn} }
func (db *DB) Messages() repository.MessageRepository   { return &MessageDB{conn: db.conn} }
func (db *DB) AuditLogs() repository.AuditLogRepository { return &AuditLogDB{conn: db.conn} }
func (db *DB) Feedback() repository.FeedbackRepository  { return &FeedbackDB{conn: db.conn} }
func (db *DB) Accounts() repository.AccountRepository   { return &AccountDB{conn: db.conn} }

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it idempotent;
// columns added after the first release go through addColumnIfNotExists.
//
// No foreign keys: messages, logs and feedback reference users by id only,
// and users are never deleted.
func (db *DB) migrate() error {
	// email is nullable so UNIQUE only applies to users who expose one.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			github_id    INTEGER NOT NULL UNIQUE,
			username     TEXT NOT NULL UNIQUE,
			email        TEXT UNIQUE,
			name         TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT NOT NULL DEFAULT '',
			role         TEXT NOT NULL DEFAULT 'user',
			is_moderator INTEGER NOT NULL DEFAULT 0,
			is_private   INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	if err := db.addColumnIfNotExists("users", "github_token", "BLOB"); err != nil {
		return fmt.Errorf("adding github_token to users: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS codes (
			id           TEXT PRIMARY KEY,
			code         TEXT NOT NULL UNIQUE,
			credit       INTEGER NOT NULL DEFAULT 0 CHECK (credit >= 0),
			premium      INTEGER NOT NULL DEFAULT 0,
			premium_days INTEGER NOT NULL DEFAULT 0 CHECK (premium_days >= 0),
			usage_limit  INTEGER NOT NULL DEFAULT 1 CHECK (usage_limit >= 1),
			used_count   INTEGER NOT NULL DEFAULT 0 CHECK (used_count >= 0),
			created_by   TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_codes_created_at ON codes(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating codes table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id           TEXT PRIMARY KEY,
			recipient_id TEXT NOT NULL,
			subject      TEXT NOT NULL DEFAULT '',
			content      TEXT NOT NULL DEFAULT '',
			read         INTEGER NOT NULL DEFAULT 0,
			read_at      DATETIME,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS logs (
			id          TEXT PRIMARY KEY,
			actor_id    TEXT NOT NULL,
			action      TEXT NOT NULL,
			method      TEXT NOT NULL CHECK (method IN ('GET','POST','PUT','PATCH','DELETE')),
			endpoint    TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			detail      TEXT NOT NULL DEFAULT 'null',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_logs_actor ON logs(actor_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating logs table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS feedback (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			content    TEXT NOT NULL,
			consent    INTEGER NOT NULL DEFAULT 0,
			category   TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating feedback table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_premium (
			user_id    TEXT PRIMARY KEY,
			is_premium INTEGER NOT NULL DEFAULT 0,
			expires_at DATETIME
		);
		CREATE TABLE IF NOT EXISTS user_stats (
			user_id       TEXT PRIMARY KEY,
			credits       INTEGER NOT NULL DEFAULT 0,
			profile_views INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS code_redemptions (
			code_id     TEXT NOT NULL,
			user_id     TEXT NOT NULL,
			redeemed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (code_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating account tables: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// nullString maps "" to NULL, for nullable UNIQUE columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint. Both surface as "UNIQUE constraint failed" in the message even
// when the driver only reports the primary SQLITE_CONSTRAINT code.
func isUniqueViolation(err error) bool {
	var e *driver.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(e.Error(), "UNIQUE constraint failed")
	}
	return false
}
