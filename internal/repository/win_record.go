package repository

import (
	"context"

	"prize-wheel/internal/domain"
)

// WinRecordRepository 定义了中奖记录在事务之外的读取与领奖信息写入。
type WinRecordRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.WinRecord, error)

	// FindByClaimToken 根据领奖凭证查找记录，不存在时返回 ErrWinRecordNotFound。
	FindByClaimToken(ctx context.Context, token string) (*domain.WinRecord, error)

	// List 按中奖时间倒序返回最近的记录，附带奖品展示信息。
	List(ctx context.Context, limit int) ([]domain.WinLogEntry, error)

	// UpdateClaim 只写入领奖人字段，绝不触碰库存。
	UpdateClaim(ctx context.Context, id uint, details domain.ClaimDetails) error
}
