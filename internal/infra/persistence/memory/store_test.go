package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/infra/persistence/memory"
	"prize-wheel/internal/repository"
	"prize-wheel/internal/service"
)

func TestStore_CommitAndRollback(t *testing.T) {
	store := memory.NewStore()
	wheel := store.AddWheel(domain.Wheel{Slug: "w", Enabled: true},
		domain.Prize{Label: "A", Stock: 2, Weight: 1},
	)
	prizeID := wheel.Prizes[0].ID
	ctx := context.Background()

	err := store.WithinTx(ctx, func(tx repository.InventoryTx) error {
		ok, err := tx.DecrementStock(ctx, prizeID)
		require.NoError(t, err)
		require.True(t, ok)
		return tx.CreateWinRecord(ctx, &domain.WinRecord{PrizeID: prizeID, WheelID: wheel.ID})
	})
	require.NoError(t, err)
	p, _ := store.Prize(prizeID)
	assert.Equal(t, 1, p.Stock)
	assert.Len(t, store.WinRecords(), 1)

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(tx repository.InventoryTx) error {
		ok, err := tx.DecrementStock(ctx, prizeID)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.CreateWinRecord(ctx, &domain.WinRecord{PrizeID: prizeID, WheelID: wheel.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	p, _ = store.Prize(prizeID)
	assert.Equal(t, 1, p.Stock, "rollback must restore stock")
	assert.Len(t, store.WinRecords(), 1, "rollback must discard pending records")
}

func TestStore_DecrementNeverBelowZero(t *testing.T) {
	store := memory.NewStore()
	wheel := store.AddWheel(domain.Wheel{Slug: "w", Enabled: true}, domain.Prize{Label: "A", Stock: 1, Weight: 1})
	prizeID := wheel.Prizes[0].ID
	ctx := context.Background()

	_ = store.WithinTx(ctx, func(tx repository.InventoryTx) error {
		ok, _ := tx.DecrementStock(ctx, prizeID)
		assert.True(t, ok)
		ok, _ = tx.DecrementStock(ctx, prizeID)
		assert.False(t, ok)

		available, err := tx.ListAvailablePrizes(ctx, wheel.ID)
		require.NoError(t, err)
		assert.Empty(t, available)
		return nil
	})
	p, _ := store.Prize(prizeID)
	assert.Equal(t, 0, p.Stock)
}

func TestStore_UncommittedDecrementIsInvisible(t *testing.T) {
	store := memory.NewStore()
	wheel := store.AddWheel(domain.Wheel{Slug: "main", Enabled: true},
		domain.Prize{Label: "A", Stock: 1, Weight: 1},
	)
	prizeID := wheel.Prizes[0].ID
	ctx := context.Background()
	spins := service.NewSpinService(store)

	reserved := make(chan struct{})
	rollback := make(chan struct{})
	boom := errors.New("boom")
	outer := make(chan error, 1)
	go func() {
		outer <- store.WithinTx(ctx, func(tx repository.InventoryTx) error {
			ok, err := tx.DecrementStock(ctx, prizeID)
			require.NoError(t, err)
			require.True(t, ok)

			// 本事务看得到自己的扣减
			own, err := tx.GetPrize(ctx, prizeID)
			require.NoError(t, err)
			assert.Equal(t, 0, own.Stock)

			close(reserved)
			<-rollback
			return boom
		})
	}()
	<-reserved

	// 其他读取只看到已提交库存
	committed, _ := store.Prize(prizeID)
	assert.Equal(t, 1, committed.Stock)
	require.NoError(t, store.WithinTx(ctx, func(tx repository.InventoryTx) error {
		available, err := tx.ListAvailablePrizes(ctx, wheel.ID)
		require.NoError(t, err)
		require.Len(t, available, 1)
		assert.Equal(t, 1, available[0].Stock)
		return nil
	}))

	// 并发抽奖等待预留结束，而不是返回售罄
	type spinOutcome struct {
		result *service.SpinResult
		err    error
	}
	spun := make(chan spinOutcome, 1)
	go func() {
		result, err := spins.Spin(ctx, "main")
		spun <- spinOutcome{result, err}
	}()
	select {
	case got := <-spun:
		t.Fatalf("spin finished while the unit was reserved: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}

	close(rollback)
	require.ErrorIs(t, <-outer, boom)

	select {
	case got := <-spun:
		require.NoError(t, got.err, "released reservation must be drawable again")
		assert.Equal(t, 0, got.result.Prize.Stock)
	case <-time.After(time.Second):
		t.Fatal("spin never resumed after rollback")
	}
	p, _ := store.Prize(prizeID)
	assert.Equal(t, 0, p.Stock)
	assert.Len(t, store.WinRecords(), 1)
}

func TestStore_DecrementWaitHonorsContext(t *testing.T) {
	store := memory.NewStore()
	wheel := store.AddWheel(domain.Wheel{Slug: "main", Enabled: true},
		domain.Prize{Label: "A", Stock: 1, Weight: 1},
	)
	prizeID := wheel.Prizes[0].ID
	ctx := context.Background()

	_ = store.WithinTx(ctx, func(tx repository.InventoryTx) error {
		ok, err := tx.DecrementStock(ctx, prizeID)
		require.NoError(t, err)
		require.True(t, ok)

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		inner := store.WithinTx(waitCtx, func(other repository.InventoryTx) error {
			_, err := other.DecrementStock(waitCtx, prizeID)
			return err
		})
		assert.ErrorIs(t, inner, context.DeadlineExceeded)
		return nil
	})

	p, _ := store.Prize(prizeID)
	assert.Equal(t, 0, p.Stock)
}

func TestStore_FindByRef(t *testing.T) {
	store := memory.NewStore()
	wheel := store.AddWheel(domain.Wheel{Slug: "main", Enabled: true})
	ctx := context.Background()

	got, err := store.FindByRef(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, wheel.ID, got.ID)

	got, err = store.FindByRef(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "main", got.Slug)

	_, err = store.FindByRef(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.SetEnabled(ctx, wheel.ID, false))
	got, _ = store.FindByID(ctx, wheel.ID)
	assert.False(t, got.Enabled)
}
