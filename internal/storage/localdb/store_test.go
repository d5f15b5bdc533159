package localdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func holding(id, ownerID, symbol string, createdAt time.Time) *models.Holding {
	return &models.Holding{
		ID:          id,
		OwnerID:     ownerID,
		Symbol:      symbol,
		Quantity:    10,
		AverageCost: 100,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestSaveAndGetHolding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := holding("h1", "alice", "AAPL", time.Now().UTC())
	require.NoError(t, store.SaveHolding(ctx, want))

	got, err := store.GetHolding(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, "alice", got.OwnerID)
}

func TestGetHoldingNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetHolding(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListHoldingsForOwnerNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.SaveHolding(ctx, holding("h1", "alice", "AAPL", base)))
	require.NoError(t, store.SaveHolding(ctx, holding("h2", "alice", "MSFT", base.Add(time.Minute))))
	require.NoError(t, store.SaveHolding(ctx, holding("h3", "bob", "TSLA", base.Add(2*time.Minute))))

	holdings, err := store.ListHoldingsForOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "MSFT", holdings[0].Symbol)
	assert.Equal(t, "AAPL", holdings[1].Symbol)
}

func TestDeleteHoldingPurgesTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHolding(ctx, holding("h1", "alice", "AAPL", time.Now())))
	require.NoError(t, store.AppendTransaction(ctx, "alice", &models.Transaction{
		ID: "t1", HoldingID: "h1", Kind: models.TransactionBuy, Quantity: 10, UnitPrice: 100, Timestamp: time.Now(),
	}))

	require.NoError(t, store.DeleteHolding(ctx, "h1"))

	_, err := store.GetHolding(ctx, "h1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	txs, err := store.ListTransactionsForHolding(ctx, "h1")
	require.NoError(t, err)
	assert.Empty(t, txs)

	// Deleting again is a no-op.
	assert.NoError(t, store.DeleteHolding(ctx, "h1"))
}

func TestTransactionsMostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, store.AppendTransaction(ctx, "alice", &models.Transaction{
			ID:        id,
			HoldingID: "h1",
			Kind:      models.TransactionBuy,
			Quantity:  1,
			UnitPrice: 100,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	txs, err := store.ListTransactionsForHolding(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "t3", txs[0].ID)
	assert.Equal(t, "t1", txs[2].ID)
}

func TestFindOwnerForHolding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHolding(ctx, holding("h1", "alice", "AAPL", time.Now())))

	owner, err := store.FindOwnerForHolding(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	_, err = store.FindOwnerForHolding(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFindOwnerForHoldingWithoutIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Simulate a database written before the owner index existed.
	require.NoError(t, store.db.Upsert("h1", holding("h1", "alice", "AAPL", time.Now())))

	owner, err := store.FindOwnerForHolding(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
}

func TestUpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	h := holding("h1", "alice", "AAPL", time.Now())
	require.NoError(t, store.SaveHolding(ctx, h))

	h.Quantity = 25
	require.NoError(t, store.SaveHolding(ctx, h))

	got, err := store.GetHolding(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 25.0, got.Quantity)

	holdings, err := store.ListHoldingsForOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, holdings, 1)
}
