package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtures(t *testing.T) (*AuthService, *LedgerService) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenManager("test-secret", "tally", time.Hour)
	return NewAuthService(repo, tokens), NewLedgerService(repo)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	authSvc, _ := newFixtures(t)
	ctx := context.Background()

	user, token, err := authSvc.Register(ctx, "Ada", "ada@example.com", "secret123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "secret123", user.PasswordHash, "plaintext must never be stored")

	// duplicate email conflicts, first registration unaffected
	_, _, err = authSvc.Register(ctx, "Imposter", "ada@example.com", "other-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, token, err := authSvc.Authenticate(ctx, "ada@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, token)
}

func TestAuthenticateGenericFailure(t *testing.T) {
	authSvc, _ := newFixtures(t)
	ctx := context.Background()

	_, _, err := authSvc.Register(ctx, "Ada", "ada@example.com", "secret123")
	require.NoError(t, err)

	// unknown email and wrong password yield the identical error
	_, _, unknownErr := authSvc.Authenticate(ctx, "ghost@example.com", "secret123")
	_, _, wrongErr := authSvc.Authenticate(ctx, "ada@example.com", "wrong-pass")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestCreateEntryDefaultsDateToNow(t *testing.T) {
	authSvc, ledger := newFixtures(t)
	ctx := context.Background()

	owner, _, err := authSvc.Register(ctx, "Ada", "ada@example.com", "secret123")
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)
	created, err := ledger.CreateEntry(ctx, core.Entry{
		OwnerID:  owner.ID,
		Kind:     core.Expense,
		Amount:   core.Money{Cents: 1200},
		Category: "Food",
	})
	require.NoError(t, err)
	assert.False(t, created.OccurredAt.Before(before))
	assert.False(t, created.OccurredAt.After(time.Now().UTC().Add(time.Second)))
}

func TestUpdateEntryKeepsDateWhenUnset(t *testing.T) {
	authSvc, ledger := newFixtures(t)
	ctx := context.Background()

	owner, _, err := authSvc.Register(ctx, "Ada", "ada@example.com", "secret123")
	require.NoError(t, err)

	occurred := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	created, err := ledger.CreateEntry(ctx, core.Entry{
		OwnerID:    owner.ID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 4200},
		Category:   "Food",
		OccurredAt: occurred,
	})
	require.NoError(t, err)

	// No date in the update keeps the stored one.
	updated, err := ledger.UpdateEntry(ctx, core.Entry{
		ID:       created.ID,
		OwnerID:  owner.ID,
		Kind:     core.Expense,
		Amount:   core.Money{Cents: 4300},
		Category: "Dining",
	})
	require.NoError(t, err)
	assert.True(t, updated.OccurredAt.Equal(occurred))
	assert.Equal(t, int64(4300), updated.Amount.Cents)

	// A dateless update of a foreign or missing entry is still a miss.
	_, err = ledger.UpdateEntry(ctx, core.Entry{
		ID:       created.ID + 999,
		OwnerID:  owner.ID,
		Kind:     core.Expense,
		Amount:   core.Money{Cents: 1},
		Category: "Nope",
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMonthlySummaryScenario(t *testing.T) {
	authSvc, ledger := newFixtures(t)
	ctx := context.Background()

	owner, _, err := authSvc.Register(ctx, "Ada", "ada@example.com", "secret123")
	require.NoError(t, err)

	seed := []struct {
		kind     core.EntryKind
		cents    int64
		category string
		at       time.Time
	}{
		{core.Income, 100000, "Salary", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{core.Expense, 20050, "Food", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{core.Expense, 9950, "Food", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, e := range seed {
		_, err := ledger.CreateEntry(ctx, core.Entry{
			OwnerID:    owner.ID,
			Kind:       e.kind,
			Amount:     core.Money{Cents: e.cents},
			Category:   e.category,
			OccurredAt: e.at,
		})
		require.NoError(t, err)
	}

	s, err := ledger.MonthlySummary(ctx, owner.ID, 2024, 1)
	require.NoError(t, err)

	assert.Equal(t, "2024-01", s.PeriodKey)
	assert.Equal(t, int64(100000), s.TotalIncome.Cents)
	assert.Equal(t, int64(20050), s.TotalExpenses.Cents)
	assert.Equal(t, int64(79950), s.Balance.Cents)
	require.Len(t, s.ByCategory, 2)
	assert.Equal(t, core.CategoryTotal{Category: "Salary", Total: core.Money{Cents: 100000}}, s.ByCategory[0])
	assert.Equal(t, core.CategoryTotal{Category: "Food", Total: core.Money{Cents: 20050}}, s.ByCategory[1])

	// February only sees the 99.50 entry
	s, err = ledger.MonthlySummary(ctx, owner.ID, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(9950), s.TotalExpenses.Cents)
	assert.Equal(t, int64(-9950), s.Balance.Cents)
}

func TestMonthlySummaryRejectsBadMonth(t *testing.T) {
	_, ledger := newFixtures(t)
	_, err := ledger.MonthlySummary(context.Background(), 1, 2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestYearlySummaryEmptyWindow(t *testing.T) {
	authSvc, ledger := newFixtures(t)
	ctx := context.Background()

	owner, _, err := authSvc.Register(ctx, "Ada", "ada@example.com", "secret123")
	require.NoError(t, err)

	s, err := ledger.YearlySummary(ctx, owner.ID, 2023)
	require.NoError(t, err)
	assert.Equal(t, "2023", s.PeriodKey)
	assert.Zero(t, s.TotalIncome.Cents)
	assert.Zero(t, s.TotalExpenses.Cents)
	assert.Zero(t, s.Balance.Cents)
	assert.Empty(t, s.ByCategory)
	assert.NotNil(t, s.ByCategory)
}
