package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/repository"
)

// GormWinRecordRepository 是 WinRecordRepository 接口的 GORM 实现
type GormWinRecordRepository struct {
	db *gorm.DB
}

// NewGormWinRecordRepository 创建 GormWinRecordRepository 实例
func NewGormWinRecordRepository(db *gorm.DB) *GormWinRecordRepository {
	if db == nil {
		panic("database connection cannot be nil for GormWinRecordRepository")
	}
	return &GormWinRecordRepository{db: db}
}

// FindByID 实现根据 ID 查找中奖记录
func (r *GormWinRecordRepository) FindByID(ctx context.Context, id uint) (*domain.WinRecord, error) {
	var record domain.WinRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrWinRecordNotFound
		}
		return nil, fmt.Errorf("gorm: find win record by id %d: %w", id, err)
	}
	return &record, nil
}

// FindByClaimToken 实现根据领奖凭证查找中奖记录
func (r *GormWinRecordRepository) FindByClaimToken(ctx context.Context, token string) (*domain.WinRecord, error) {
	if token == "" {
		return nil, repository.ErrWinRecordNotFound
	}
	var record domain.WinRecord
	err := r.db.WithContext(ctx).Where("claim_token = ?", token).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrWinRecordNotFound
		}
		return nil, fmt.Errorf("gorm: find win record by claim token: %w", err)
	}
	return &record, nil
}

// List 按中奖时间倒序返回记录，LEFT JOIN 奖品以便奖品被删除后记录仍可见
func (r *GormWinRecordRepository) List(ctx context.Context, limit int) ([]domain.WinLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []domain.WinLogEntry
	err := r.db.WithContext(ctx).
		Table("win_records").
		Select("win_records.*, COALESCE(prizes.label, ?) AS prize_label, COALESCE(prizes.color, ?) AS prize_color", "Unknown", "#000000").
		Joins("LEFT JOIN prizes ON prizes.id = win_records.prize_id").
		Order("win_records.won_at desc").Order("win_records.id desc").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list win records (limit %d): %w", limit, err)
	}
	return entries, nil
}

// UpdateClaim 只更新领奖人字段，且仅对尚未领取的记录生效
func (r *GormWinRecordRepository) UpdateClaim(ctx context.Context, id uint, details domain.ClaimDetails) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&domain.WinRecord{}).
		Where("id = ? AND claimed_at IS NULL", id).
		Updates(map[string]interface{}{
			"winner_name":    details.Name,
			"winner_phone":   details.Phone,
			"winner_address": details.Address,
			"claimed_at":     now,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: update claim for win record %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrDuplicateEntry // 已被领取
	}
	return nil
}
