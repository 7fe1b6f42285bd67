// Package storage is the ledger store adapter. Every entry query and
// mutation takes the owner id as a mandatory filter; there is no code
// path that reads another owner's rows.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates a record that does not exist or is not owned by
// the caller; the two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Store captures the persistence operations the services need. The
// SQLite repository is the only implementation; the interface exists so
// HTTP tests and future backends stay decoupled from the driver.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error)
	FindUserByEmail(ctx context.Context, email string) (core.User, error)
	FindUserByID(ctx context.Context, id int64) (core.User, error)

	CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error)
	FindEntry(ctx context.Context, ownerID, id int64) (core.Entry, error)
	ListEntries(ctx context.Context, ownerID int64) ([]core.Entry, error)
	ListEntriesInWindow(ctx context.Context, ownerID int64, p core.Period) ([]core.Entry, error)
	UpdateEntry(ctx context.Context, e core.Entry) (core.Entry, error)
	DeleteEntry(ctx context.Context, ownerID, id int64) error
}

type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if necessary) the database at
// dbPath and applies migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts a new user row. A duplicate email surfaces as
// ErrAlreadyExists.
func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		name, email, passwordHash, now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, ErrAlreadyExists
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "email", email)

	return core.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now.Truncate(time.Second),
	}, nil
}

// FindUserByEmail fetches a user by email address.
func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// FindUserByID fetches a user by id.
func (r *SQLiteRepository) FindUserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// CreateEntry inserts a ledger entry for its owner.
func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (user_id, kind, amount_cents, category, occurred_at, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerID, string(e.Kind), e.Amount.Cents, e.Category, e.OccurredAt.UTC().Unix(), e.Note,
		now.Unix(), now.Unix())
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry id: %w", err)
	}

	e.ID = id
	e.OccurredAt = e.OccurredAt.UTC().Truncate(time.Second)
	e.CreatedAt = now
	e.UpdatedAt = now

	slog.InfoContext(ctx, "Entry saved",
		"id", e.ID,
		"owner_id", e.OwnerID,
		"kind", e.Kind,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return e, nil
}

// ListEntries returns every entry owned by ownerID, most recent first.
func (r *SQLiteRepository) ListEntries(ctx context.Context, ownerID int64) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, amount_cents, category, occurred_at, note, created_at, updated_at
		 FROM entries WHERE user_id = ?
		 ORDER BY occurred_at DESC, created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListEntriesInWindow returns ownerID's entries with occurred_at in
// [p.Start, p.End). This is the only query feeding the summary engine.
func (r *SQLiteRepository) ListEntriesInWindow(ctx context.Context, ownerID int64, p core.Period) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, amount_cents, category, occurred_at, note, created_at, updated_at
		 FROM entries WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?
		 ORDER BY occurred_at ASC, id ASC`,
		ownerID, p.Start.Unix(), p.End.Unix())
	if err != nil {
		return nil, fmt.Errorf("list entries in window: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// UpdateEntry rewrites the mutable fields of an entry scoped by id and
// owner. ErrNotFound covers both a missing row and someone else's row.
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		`UPDATE entries SET kind = ?, amount_cents = ?, category = ?, occurred_at = ?, note = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		string(e.Kind), e.Amount.Cents, e.Category, e.OccurredAt.UTC().Unix(), e.Note, now.Unix(),
		e.ID, e.OwnerID)
	if err != nil {
		return core.Entry{}, fmt.Errorf("update entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Entry{}, fmt.Errorf("update entry rows: %w", err)
	}
	if affected == 0 {
		return core.Entry{}, ErrNotFound
	}

	return r.FindEntry(ctx, e.OwnerID, e.ID)
}

// DeleteEntry removes an entry scoped by id and owner.
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Entry deleted", "id", id, "owner_id", ownerID)
	return nil
}

// FindEntry fetches a single entry scoped by id and owner. ErrNotFound
// covers both a missing row and someone else's row.
func (r *SQLiteRepository) FindEntry(ctx context.Context, ownerID, id int64) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, kind, amount_cents, category, occurred_at, note, created_at, updated_at
		 FROM entries WHERE id = ? AND user_id = ?`, id, ownerID)
	e, err := scanEntry(row)
	if err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (core.User, error) {
	var u core.User
	var createdAt int64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, ErrNotFound
		}
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return u, nil
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var e core.Entry
	var kind string
	var occurredAt, createdAt, updatedAt int64
	err := row.Scan(&e.ID, &e.OwnerID, &kind, &e.Amount.Cents, &e.Category,
		&occurredAt, &e.Note, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entry{}, ErrNotFound
		}
		return core.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Kind = core.EntryKind(kind)
	e.OccurredAt = time.Unix(occurredAt, 0).UTC()
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	e.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return e, nil
}

func collectEntries(rows *sql.Rows) ([]core.Entry, error) {
	entries := []core.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
