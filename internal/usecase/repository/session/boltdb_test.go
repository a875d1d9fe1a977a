package session

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"minibank/internal/entity"
)

func newTestRepository(t *testing.T) *BoltDBRepository {
	t.Helper()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "session.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewBoltDB(db)
	require.NoError(t, err)
	return repo
}

func TestSaveGetClear(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(7)
	assert.ErrorIs(t, err, entity.SessionNotFoundErr)

	saved := entity.Session{
		ChatID:       7,
		Pending:      entity.PendingTransfer,
		Account:      "11111",
		Counterparty: "22222",
		Amount:       decimal.RequireFromString("12.50"),
		Attempts:     1,
	}
	require.NoError(t, repo.Save(7, saved))

	got, err := repo.Get(7)
	require.NoError(t, err)
	assert.Equal(t, saved.Pending, got.Pending)
	assert.Equal(t, saved.Account, got.Account)
	assert.Equal(t, saved.Counterparty, got.Counterparty)
	assert.True(t, saved.Amount.Equal(got.Amount))
	assert.Equal(t, 1, got.Attempts)

	require.NoError(t, repo.Clear(7))
	_, err = repo.Get(7)
	assert.ErrorIs(t, err, entity.SessionNotFoundErr)

	// clearing a missing session is not an error
	require.NoError(t, repo.Clear(7))
}
