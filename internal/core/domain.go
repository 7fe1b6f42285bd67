package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  EntryKind = "income"
	Expense EntryKind = "expense"
)

type (
	// EntryKind is the two-value income/expense enum.
	EntryKind string

	// User is an authenticated principal. PasswordHash never leaves the
	// server: it is excluded from JSON on purpose.
	User struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// Entry is one income or expense record, owned by exactly one user.
	Entry struct {
		ID         int64     `json:"id"`
		OwnerID    int64     `json:"-"`
		Kind       EntryKind `json:"type"`
		Amount     Money     `json:"amount"`
		Category   string    `json:"category"`
		OccurredAt time.Time `json:"date"`
		Note       string    `json:"description,omitempty"`
		CreatedAt  time.Time `json:"createdAt"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("type must be income or expense")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidDate     = errors.New("invalid date")
	ErrMissingOwner    = errors.New("missing owner id")
	ErrCategoryTooLong = errors.New("category too long (max 100 characters)")
	ErrNoteTooLong     = errors.New("description too long (max 500 characters)")
)

// Valid reports whether the kind is one of the two accepted values.
func (k EntryKind) Valid() bool {
	return k == Income || k == Expense
}

// Validate checks every entry invariant: valid kind, positive amount,
// non-empty category, and a usable UTC timestamp.
func (e Entry) Validate() error {
	if e.OwnerID <= 0 {
		return ErrMissingOwner
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Category) > 100 {
		return ErrCategoryTooLong
	}
	if len(e.Note) > 500 {
		return ErrNoteTooLong
	}
	if e.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Normalize trims free-text fields and forces the timestamp to UTC so
// that every stored entry compares in the same zone.
func (e Entry) Normalize() Entry {
	e.Category = strings.TrimSpace(e.Category)
	e.Note = strings.TrimSpace(e.Note)
	e.OccurredAt = e.OccurredAt.UTC()
	return e
}
