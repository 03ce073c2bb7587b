package inventory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/testutil"
)

func setup(t *testing.T, stock int64) (*Ledger, *testutil.Fixtures, *models.Product) {
	t.Helper()
	db := testutil.NewDB(t)
	fx := testutil.NewFixtures(t, db)
	p := fx.Product(models.Product{Title: "Pixel", Price: 1000, StockCount: stock})
	return NewLedger(db), fx, p
}

func TestAdjustIncrementAndDecrement(t *testing.T) {
	l, fx, p := setup(t, 5)
	ctx := context.Background()

	got, err := l.Adjust(ctx, p.ID, -2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.StockCount)

	got, err = l.Adjust(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 13, got.StockCount)
	assert.EqualValues(t, 13, fx.Stock(p.ID))
}

func TestAdjustToExactlyZero(t *testing.T) {
	l, fx, p := setup(t, 4)

	got, err := l.Adjust(context.Background(), p.ID, -4)
	require.NoError(t, err)
	assert.Zero(t, got.StockCount)
	assert.Zero(t, fx.Stock(p.ID))
}

func TestAdjustInsufficientStock(t *testing.T) {
	l, fx, p := setup(t, 1)

	_, err := l.Adjust(context.Background(), p.ID, -5)
	se, ok := AsInsufficientStock(err)
	require.True(t, ok, "expected InsufficientStockError, got %v", err)
	assert.Equal(t, p.ID, se.ProductID)
	assert.EqualValues(t, 5, se.Requested)
	assert.EqualValues(t, 1, se.Available)
	assert.EqualValues(t, 1, fx.Stock(p.ID))
}

func TestAdjustMissingProduct(t *testing.T) {
	l, _, _ := setup(t, 1)

	_, err := l.Adjust(context.Background(), 999, -1)
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = l.Adjust(context.Background(), 999, 3)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestAdjustZeroDeltaIsNoop(t *testing.T) {
	l, fx, p := setup(t, 2)
	before := p.UpdatedAt

	got, err := l.Adjust(context.Background(), p.ID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.StockCount)
	assert.WithinDuration(t, before, got.UpdatedAt, time.Millisecond)
	assert.EqualValues(t, 2, fx.Stock(p.ID))
}

func TestAdjustRollsBackWithTransaction(t *testing.T) {
	l, fx, p := setup(t, 3)
	boom := errors.New("boom")

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := l.WithTx(tx).Adjust(context.Background(), p.ID, -3); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.EqualValues(t, 3, fx.Stock(p.ID))
}

// The test database pool holds one connection, so these goroutines interleave
// rather than run in parallel. Under real contention the guarantee comes from
// the conditional single-statement UPDATE in Adjust.
func TestInterleavedDecrementsNeverOversell(t *testing.T) {
	l, fx, p := setup(t, 10)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sold     int
		rejected int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Adjust(context.Background(), p.ID, -1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				sold++
				return
			}
			if _, ok := AsInsufficientStock(err); ok {
				rejected++
				return
			}
			t.Errorf("unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, sold)
	assert.Equal(t, 15, rejected)
	assert.Zero(t, fx.Stock(p.ID))
}

func TestRandomSequenceKeepsStockNonNegative(t *testing.T) {
	l, fx, p := setup(t, 0)
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	expected := int64(0)
	for i := 0; i < 200; i++ {
		delta := int64(rng.Intn(11) - 6)
		_, err := l.Adjust(ctx, p.ID, delta)
		if expected+delta < 0 {
			_, ok := AsInsufficientStock(err)
			require.True(t, ok, "step %d: expected rejection, got %v", i, err)
			continue
		}
		require.NoError(t, err, "step %d", i)
		expected += delta
		require.GreaterOrEqual(t, fx.Stock(p.ID), int64(0))
	}
	assert.Equal(t, expected, fx.Stock(p.ID))
}

func TestStock(t *testing.T) {
	l, _, p := setup(t, 7)
	n, err := l.Stock(context.Background(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}
