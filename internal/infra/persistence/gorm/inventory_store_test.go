package gormpersistence_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prize-wheel/internal/domain"
	gormpersistence "prize-wheel/internal/infra/persistence/gorm"
	"prize-wheel/internal/infra/setup"
	"prize-wheel/internal/repository"
	"prize-wheel/internal/service"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, setup.MigrateDB(db))
	return db
}

func seedWheel(t *testing.T, db *gorm.DB, enabled bool, prizes ...domain.Prize) *domain.Wheel {
	t.Helper()
	wheel := &domain.Wheel{Name: "Test", Slug: "test-wheel", Enabled: true}
	require.NoError(t, db.Create(wheel).Error)
	if !enabled {
		// gorm 会忽略零值 bool，单独更新
		require.NoError(t, db.Model(wheel).Update("enabled", false).Error)
		wheel.Enabled = false
	}
	for i := range prizes {
		prizes[i].WheelID = wheel.ID
		require.NoError(t, db.Create(&prizes[i]).Error)
	}
	wheel.Prizes = prizes
	return wheel
}

func TestGormInventoryStore_FindWheelByRef(t *testing.T) {
	db := newTestDB(t)
	store := gormpersistence.NewGormInventoryStore(db)
	wheel := seedWheel(t, db, true)
	ctx := context.Background()

	bySlug, err := store.FindByRef(ctx, "test-wheel")
	require.NoError(t, err)
	assert.Equal(t, wheel.ID, bySlug.ID)

	byID, err := store.FindByRef(ctx, strconv.FormatUint(uint64(wheel.ID), 10))
	require.NoError(t, err)
	assert.Equal(t, wheel.ID, byID.ID)

	_, err = store.FindByRef(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrWheelNotFound)
}

func TestGormInventoryStore_ConditionalDecrement(t *testing.T) {
	db := newTestDB(t)
	store := gormpersistence.NewGormInventoryStore(db)
	wheel := seedWheel(t, db, true,
		domain.Prize{Label: "A", Color: "#f00", Weight: 1, Stock: 1},
		domain.Prize{Label: "B", Color: "#0f0", Weight: 1, Stock: 0},
	)
	a := wheel.Prizes[0]
	ctx := context.Background()

	err := store.WithinTx(ctx, func(tx repository.InventoryTx) error {
		available, err := tx.ListAvailablePrizes(ctx, wheel.ID)
		require.NoError(t, err)
		require.Len(t, available, 1)
		assert.Equal(t, a.ID, available[0].ID)

		ok, err := tx.DecrementStock(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.DecrementStock(ctx, a.ID)
		require.NoError(t, err)
		assert.False(t, ok, "second decrement must not drive stock negative")

		prize, err := tx.GetPrize(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, prize.Stock)
		return nil
	})
	require.NoError(t, err)

	prizes, err := store.ListPrizes(ctx, wheel.ID)
	require.NoError(t, err)
	for _, p := range prizes {
		assert.Equal(t, 0, p.Stock)
	}
}

func TestGormInventoryStore_ConcurrentSpinsNeverOversell(t *testing.T) {
	db := newTestDB(t)
	store := gormpersistence.NewGormInventoryStore(db)
	wheel := seedWheel(t, db, true,
		domain.Prize{Label: "A", Color: "#f00", Weight: 1, Stock: 3},
		domain.Prize{Label: "B", Color: "#0f0", Weight: 2, Stock: 5},
	)
	svc := service.NewSpinService(store, service.WithMaxAttempts(50))

	const spins = 40
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		noStock  int
		perPrize = map[uint]int{}
	)
	for i := 0; i < spins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Spin(context.Background(), "test-wheel")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
				perPrize[result.Prize.ID]++
			case errors.Is(err, service.ErrNoStock):
				noStock++
			default:
				t.Errorf("unexpected spin error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, wins)
	assert.Equal(t, spins-8, noStock)

	var records int64
	require.NoError(t, db.Model(&domain.WinRecord{}).Count(&records).Error)
	assert.Equal(t, int64(8), records)

	var tokens int64
	require.NoError(t, db.Model(&domain.WinRecord{}).Distinct("claim_token").Count(&tokens).Error)
	assert.Equal(t, int64(8), tokens, "every win gets its own claim token")

	for _, p := range wheel.Prizes {
		var got domain.Prize
		require.NoError(t, db.First(&got, p.ID).Error)
		assert.Equal(t, 0, got.Stock)
		assert.Equal(t, p.Stock, perPrize[p.ID], "wins for %s must equal initial stock", p.Label)
	}
}

func TestGormInventoryStore_RollbackRestoresStock(t *testing.T) {
	db := newTestDB(t)
	store := gormpersistence.NewGormInventoryStore(db)
	wheel := seedWheel(t, db, true, domain.Prize{Label: "A", Color: "#f00", Weight: 1, Stock: 3})
	a := wheel.Prizes[0]
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx repository.InventoryTx) error {
		ok, err := tx.DecrementStock(ctx, a.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.CreateWinRecord(ctx, &domain.WinRecord{PrizeID: a.ID, WheelID: wheel.ID, WonAt: time.Now()}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var reloaded domain.Prize
	require.NoError(t, db.First(&reloaded, a.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)

	var count int64
	require.NoError(t, db.Model(&domain.WinRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormInventoryStore_SetEnabled(t *testing.T) {
	db := newTestDB(t)
	store := gormpersistence.NewGormInventoryStore(db)
	wheel := seedWheel(t, db, true)
	ctx := context.Background()

	require.NoError(t, store.SetEnabled(ctx, wheel.ID, false))
	reloaded, err := store.FindByID(ctx, wheel.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Enabled)

	assert.ErrorIs(t, store.SetEnabled(ctx, wheel.ID+100, true), repository.ErrWheelNotFound)
}

func TestGormWinRecordRepository_ListAndClaim(t *testing.T) {
	db := newTestDB(t)
	wheel := seedWheel(t, db, true, domain.Prize{Label: "Mug", Color: "#123456", Weight: 1, Stock: 5})
	repo := gormpersistence.NewGormWinRecordRepository(db)
	ctx := context.Background()

	record := &domain.WinRecord{PrizeID: wheel.Prizes[0].ID, WheelID: wheel.ID, WonAt: time.Now().UTC(), ClaimToken: "tok-mug"}
	require.NoError(t, db.Create(record).Error)

	byToken, err := repo.FindByClaimToken(ctx, "tok-mug")
	require.NoError(t, err)
	assert.Equal(t, record.ID, byToken.ID)
	_, err = repo.FindByClaimToken(ctx, strconv.FormatUint(uint64(record.ID), 10))
	assert.ErrorIs(t, err, repository.ErrWinRecordNotFound)
	_, err = repo.FindByClaimToken(ctx, "")
	assert.ErrorIs(t, err, repository.ErrWinRecordNotFound)

	entries, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mug", entries[0].PrizeLabel)
	assert.Equal(t, "#123456", entries[0].PrizeColor)
	assert.Equal(t, record.ID, entries[0].ID)

	details := domain.ClaimDetails{Name: "Ann", Phone: "123", Address: "Main St"}
	require.NoError(t, repo.UpdateClaim(ctx, record.ID, details))

	claimed, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	require.True(t, claimed.Claimed())
	assert.Equal(t, "Ann", *claimed.WinnerName)

	assert.ErrorIs(t, repo.UpdateClaim(ctx, record.ID, details), repository.ErrDuplicateEntry)
	assert.ErrorIs(t, repo.UpdateClaim(ctx, record.ID+99, details), repository.ErrWinRecordNotFound)

	// 领奖不影响库存
	var prize domain.Prize
	require.NoError(t, db.First(&prize, wheel.Prizes[0].ID).Error)
	assert.Equal(t, 5, prize.Stock)
}

func TestGormAdminRepository_SaveDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormAdminRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Admin{Username: "admin", Password: "hash"}))
	err := repo.Save(ctx, &domain.Admin{Username: "admin", Password: "other"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	found, err := repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash", found.Password)

	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrAdminNotFound)
}
