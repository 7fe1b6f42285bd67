package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RepositoryTestSuite exercises the SQLite repository against a fresh
// database file per test. A file (not :memory:) is required because the
// migration runner opens its own connection.
type RepositoryTestSuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	repo, err := NewSQLiteRepository(filepath.Join(s.T().TempDir(), "tally.db"))
	require.NoError(s.T(), err, "failed to open test database")
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositoryTestSuite) createUser(email string) core.User {
	u, err := s.repo.CreateUser(s.ctx, "Test User", email, "$2a$10$fakehashfakehashfakehash")
	require.NoError(s.T(), err)
	return u
}

func (s *RepositoryTestSuite) createEntry(ownerID int64, kind core.EntryKind, cents int64, category string, at time.Time) core.Entry {
	e, err := s.repo.CreateEntry(s.ctx, core.Entry{
		OwnerID:    ownerID,
		Kind:       kind,
		Amount:     core.Money{Cents: cents},
		Category:   category,
		OccurredAt: at,
	})
	require.NoError(s.T(), err)
	return e
}

func (s *RepositoryTestSuite) TestCreateUserDuplicateEmail() {
	first := s.createUser("dupe@example.com")

	_, err := s.repo.CreateUser(s.ctx, "Other", "dupe@example.com", "hash")
	assert.ErrorIs(s.T(), err, ErrAlreadyExists)

	// first registration unaffected
	found, err := s.repo.FindUserByEmail(s.ctx, "dupe@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first.ID, found.ID)
	assert.Equal(s.T(), "Test User", found.Name)
}

func (s *RepositoryTestSuite) TestFindUserNotFound() {
	_, err := s.repo.FindUserByEmail(s.ctx, "nobody@example.com")
	assert.ErrorIs(s.T(), err, ErrNotFound)

	_, err = s.repo.FindUserByID(s.ctx, 9999)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *RepositoryTestSuite) TestEntryRoundTrip() {
	owner := s.createUser("owner@example.com")
	at := time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)

	created := s.createEntry(owner.ID, core.Expense, 20050, "Food", at)
	assert.NotZero(s.T(), created.ID)
	assert.Equal(s.T(), owner.ID, created.OwnerID)

	entries, err := s.repo.ListEntries(s.ctx, owner.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), int64(20050), entries[0].Amount.Cents)
	assert.Equal(s.T(), core.Expense, entries[0].Kind)
	assert.True(s.T(), entries[0].OccurredAt.Equal(at))
}

func (s *RepositoryTestSuite) TestListEntriesOrder() {
	owner := s.createUser("order@example.com")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s.createEntry(owner.ID, core.Expense, 100, "A", base)
	s.createEntry(owner.ID, core.Expense, 200, "B", base.Add(48*time.Hour))
	s.createEntry(owner.ID, core.Expense, 300, "C", base.Add(24*time.Hour))

	entries, err := s.repo.ListEntries(s.ctx, owner.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 3)
	assert.Equal(s.T(), "B", entries[0].Category, "most recent first")
	assert.Equal(s.T(), "C", entries[1].Category)
	assert.Equal(s.T(), "A", entries[2].Category)
}

func (s *RepositoryTestSuite) TestOwnerIsolation() {
	alice := s.createUser("alice@example.com")
	bob := s.createUser("bob@example.com")
	at := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	aliceEntry := s.createEntry(alice.ID, core.Income, 100000, "Salary", at)
	s.createEntry(bob.ID, core.Expense, 500, "Food", at)

	// listings never cross owners
	entries, err := s.repo.ListEntries(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), alice.ID, entries[0].OwnerID)

	// bob cannot delete alice's entry even with a valid id
	err = s.repo.DeleteEntry(s.ctx, bob.ID, aliceEntry.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	// and alice's entry is intact
	entries, err = s.repo.ListEntries(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), entries, 1)

	// bob cannot update it either
	aliceEntry.OwnerID = bob.ID
	aliceEntry.Category = "Hijacked"
	_, err = s.repo.UpdateEntry(s.ctx, aliceEntry)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	// nor read it directly
	_, err = s.repo.FindEntry(s.ctx, bob.ID, aliceEntry.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	found, err := s.repo.FindEntry(s.ctx, alice.ID, aliceEntry.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Salary", found.Category)
}

func (s *RepositoryTestSuite) TestWindowQuery() {
	owner := s.createUser("window@example.com")

	s.createEntry(owner.ID, core.Expense, 100, "Jan", time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC))
	s.createEntry(owner.ID, core.Expense, 200, "Feb", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	s.createEntry(owner.ID, core.Expense, 300, "Dec23", time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC))

	jan, err := core.MonthWindow(2024, 1)
	require.NoError(s.T(), err)
	entries, err := s.repo.ListEntriesInWindow(s.ctx, owner.ID, jan)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), "Jan", entries[0].Category)

	feb, err := core.MonthWindow(2024, 2)
	require.NoError(s.T(), err)
	entries, err = s.repo.ListEntriesInWindow(s.ctx, owner.ID, feb)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), "Feb", entries[0].Category)

	year := core.YearWindow(2024)
	entries, err = s.repo.ListEntriesInWindow(s.ctx, owner.ID, year)
	require.NoError(s.T(), err)
	assert.Len(s.T(), entries, 2)
}

func (s *RepositoryTestSuite) TestUpdateEntry() {
	owner := s.createUser("update@example.com")
	e := s.createEntry(owner.ID, core.Expense, 1000, "Food", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))

	e.Kind = core.Income
	e.Amount.Cents = 2500
	e.Category = "Refund"
	updated, err := s.repo.UpdateEntry(s.ctx, e)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.Income, updated.Kind)
	assert.Equal(s.T(), int64(2500), updated.Amount.Cents)
	assert.Equal(s.T(), "Refund", updated.Category)
	assert.False(s.T(), updated.UpdatedAt.Before(updated.CreatedAt))
}

func (s *RepositoryTestSuite) TestDeleteEntry() {
	owner := s.createUser("delete@example.com")
	e := s.createEntry(owner.ID, core.Expense, 1000, "Food", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))

	require.NoError(s.T(), s.repo.DeleteEntry(s.ctx, owner.ID, e.ID))

	entries, err := s.repo.ListEntries(s.ctx, owner.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), entries)

	assert.ErrorIs(s.T(), s.repo.DeleteEntry(s.ctx, owner.ID, e.ID), ErrNotFound)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
