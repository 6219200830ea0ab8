package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/repository"
)

// GormInventoryStore 是 InventoryStore 和 WheelRepository 的 GORM 实现
type GormInventoryStore struct {
	db *gorm.DB
}

// NewGormInventoryStore 创建 GormInventoryStore 实例
func NewGormInventoryStore(db *gorm.DB) *GormInventoryStore {
	if db == nil {
		panic("database connection cannot be nil for GormInventoryStore")
	}
	return &GormInventoryStore{db: db}
}

// WithinTx 使用 gorm 的 Transaction 包装 fn，fn 返回错误即回滚
func (s *GormInventoryStore) WithinTx(ctx context.Context, fn func(tx repository.InventoryTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormInventoryTx{db: tx})
	})
}

// gormInventoryTx 绑定在单个 *gorm.DB 事务句柄上
type gormInventoryTx struct {
	db *gorm.DB
}

func (t *gormInventoryTx) FindWheel(ctx context.Context, ref string) (*domain.Wheel, error) {
	return findWheelByRef(t.db.WithContext(ctx), ref)
}

func (t *gormInventoryTx) ListAvailablePrizes(ctx context.Context, wheelID uint) ([]domain.Prize, error) {
	var prizes []domain.Prize
	err := t.db.WithContext(ctx).
		Where("wheel_id = ? AND stock > 0", wheelID).
		Order("id asc").
		Find(&prizes).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list available prizes for wheel %d: %w", wheelID, err)
	}
	return prizes, nil
}

// DecrementStock 执行 UPDATE prizes SET stock = stock - 1 WHERE id = ? AND stock > 0
func (t *gormInventoryTx) DecrementStock(ctx context.Context, prizeID uint) (bool, error) {
	result := t.db.WithContext(ctx).
		Model(&domain.Prize{}).
		Where("id = ? AND stock > 0", prizeID).
		UpdateColumn("stock", gorm.Expr("stock - ?", 1))
	if result.Error != nil {
		return false, fmt.Errorf("gorm: decrement stock for prize %d: %w", prizeID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (t *gormInventoryTx) GetPrize(ctx context.Context, prizeID uint) (*domain.Prize, error) {
	var prize domain.Prize
	err := t.db.WithContext(ctx).First(&prize, prizeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPrizeNotFound
		}
		return nil, fmt.Errorf("gorm: find prize by id %d: %w", prizeID, err)
	}
	return &prize, nil
}

func (t *gormInventoryTx) CreateWinRecord(ctx context.Context, record *domain.WinRecord) error {
	if record.ClaimToken == "" {
		record.ClaimToken = uuid.NewString()
	}
	if err := t.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("gorm: create win record (wheel %d, prize %d): %w", record.WheelID, record.PrizeID, err)
	}
	return nil
}

// --- WheelRepository ---

// FindByRef 实现按 slug 或 ID 查找转盘
func (s *GormInventoryStore) FindByRef(ctx context.Context, ref string) (*domain.Wheel, error) {
	return findWheelByRef(s.db.WithContext(ctx), ref)
}

// FindByID 实现根据 ID 查找转盘
func (s *GormInventoryStore) FindByID(ctx context.Context, id uint) (*domain.Wheel, error) {
	var wheel domain.Wheel
	err := s.db.WithContext(ctx).First(&wheel, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrWheelNotFound
		}
		return nil, fmt.Errorf("gorm: find wheel by id %d: %w", id, err)
	}
	return &wheel, nil
}

// ListPrizes 返回转盘全部奖品，按权重升序（与前台展示顺序一致）
func (s *GormInventoryStore) ListPrizes(ctx context.Context, wheelID uint) ([]domain.Prize, error) {
	var prizes []domain.Prize
	err := s.db.WithContext(ctx).
		Where("wheel_id = ?", wheelID).
		Order("weight asc").Order("id asc").
		Find(&prizes).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list prizes for wheel %d: %w", wheelID, err)
	}
	return prizes, nil
}

// SetEnabled 修改转盘启用状态
func (s *GormInventoryStore) SetEnabled(ctx context.Context, wheelID uint, enabled bool) error {
	result := s.db.WithContext(ctx).
		Model(&domain.Wheel{}).
		Where("id = ?", wheelID).
		Update("enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("gorm: set wheel %d enabled=%t: %w", wheelID, enabled, result.Error)
	}
	if result.RowsAffected == 0 {
		// 值未变化时 MySQL 也会返回 0 行，再确认一次是否存在
		if _, err := s.FindByID(ctx, wheelID); err != nil {
			return err
		}
	}
	return nil
}

func findWheelByRef(db *gorm.DB, ref string) (*domain.Wheel, error) {
	var wheel domain.Wheel
	query := db.Where("slug = ?", ref)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		query = db.Where("slug = ? OR id = ?", ref, uint(id))
	}
	err := query.First(&wheel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrWheelNotFound
		}
		return nil, fmt.Errorf("gorm: find wheel by ref '%s': %w", ref, err)
	}
	return &wheel, nil
}
