package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

// LedgerService performs owner-scoped entry CRUD and summary
// aggregation. The owner id on every method comes from the verified
// token, never from the request payload.
type LedgerService struct {
	store storage.Store
}

func NewLedgerService(store storage.Store) *LedgerService {
	return &LedgerService{store: store}
}

// CreateEntry validates and stores a new entry for its owner. A zero
// timestamp means the caller gave no date and defaults to now; this
// default exists only on create.
func (s *LedgerService) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	return created, nil
}

// ListEntries returns all of the owner's entries, most recent first.
func (s *LedgerService) ListEntries(ctx context.Context, ownerID int64) ([]core.Entry, error) {
	entries, err := s.store.ListEntries(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// UpdateEntry rewrites an entry the owner holds; a missing or foreign id
// surfaces as storage.ErrNotFound. A zero timestamp means the caller
// omitted the date, which keeps the stored one rather than resetting it
// to now; moving an entry between summary periods must be explicit.
func (s *LedgerService) UpdateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if e.OccurredAt.IsZero() {
		current, err := s.store.FindEntry(ctx, e.OwnerID, e.ID)
		if err != nil {
			return core.Entry{}, err
		}
		e.OccurredAt = current.OccurredAt
	}
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	updated, err := s.store.UpdateEntry(ctx, e)
	if err != nil {
		return core.Entry{}, err
	}
	return updated, nil
}

// DeleteEntry removes an entry the owner holds.
func (s *LedgerService) DeleteEntry(ctx context.Context, ownerID, id int64) error {
	return s.store.DeleteEntry(ctx, ownerID, id)
}

// MonthlySummary aggregates one calendar month. Month outside 1-12
// returns core.ErrInvalidMonth; the period is never defaulted here.
func (s *LedgerService) MonthlySummary(ctx context.Context, ownerID int64, year, month int) (core.Summary, error) {
	window, err := core.MonthWindow(year, month)
	if err != nil {
		return core.Summary{}, err
	}
	return s.summarize(ctx, ownerID, window)
}

// YearlySummary aggregates one calendar year.
func (s *LedgerService) YearlySummary(ctx context.Context, ownerID int64, year int) (core.Summary, error) {
	return s.summarize(ctx, ownerID, core.YearWindow(year))
}

func (s *LedgerService) summarize(ctx context.Context, ownerID int64, window core.Period) (core.Summary, error) {
	entries, err := s.store.ListEntriesInWindow(ctx, ownerID, window)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load window entries: %w", err)
	}

	summary := core.Summarize(window, entries)

	slog.DebugContext(ctx, "Summary computed",
		"owner_id", ownerID,
		"period", summary.PeriodKey,
		"entries", len(entries),
		"categories", len(summary.ByCategory))

	return summary, nil
}
