package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Storage is a SQLite-backed implementation of the storage interface.
// The pool is limited to one connection so transactions are serialised,
// and the schema's partial unique index backs the one-active-game rule.
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open opens a SQLite store at path and applies migrations
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close releases the SQLite connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, name, phone, password_hash, role, is_active, deactivation_reason, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	phone = excluded.phone,
	password_hash = excluded.password_hash,
	role = excluded.role,
	is_active = excluded.is_active,
	deactivation_reason = excluded.deactivation_reason,
	updated_at = excluded.updated_at
`,
		user.ID, user.Name, user.Phone, user.PasswordHash, user.Role, user.IsActive,
		user.DeactivationReason, toMillis(user.CreatedAt), toMillis(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrPhoneTaken
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

const selectUser = `
SELECT id, name, phone, password_hash, role, is_active, deactivation_reason, created_at, updated_at
FROM users`

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u                    model.User
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.DeactivationReason, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUser+" WHERE id = ?", id))
}

func (s *Storage) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUser+" WHERE phone = ?", phone))
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)
ON CONFLICT(token) DO UPDATE SET expires_at = excluded.expires_at
`, session.Token, session.UserID, toMillis(session.CreatedAt), toMillis(session.ExpiresAt))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var (
		session              model.Session
		createdAt, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`, token,
	).Scan(&session.Token, &session.UserID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromMillis(expiresAt)
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Storage) DeleteSessionsForUser(ctx context.Context, userID model.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

// Verification code operations

func (s *Storage) SaveVerificationCode(ctx context.Context, code *model.VerificationCode) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO verification_codes (phone, code, expires_at) VALUES (?, ?, ?)
ON CONFLICT(phone) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at
`, code.Phone, code.Code, toMillis(code.ExpiresAt))
	if err != nil {
		return fmt.Errorf("save verification code: %w", err)
	}
	return nil
}

func (s *Storage) GetVerificationCode(ctx context.Context, phone string, now time.Time) (*model.VerificationCode, error) {
	var (
		code      model.VerificationCode
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT phone, code, expires_at FROM verification_codes WHERE phone = ? AND expires_at > ?`,
		phone, toMillis(now),
	).Scan(&code.Phone, &code.Code, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrInvalidVerificationCode
		}
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	code.ExpiresAt = fromMillis(expiresAt)
	return &code, nil
}

func (s *Storage) DeleteVerificationCode(ctx context.Context, phone string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE phone = ?`, phone); err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}
