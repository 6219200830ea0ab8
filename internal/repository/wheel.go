package repository

import (
	"context"

	"prize-wheel/internal/domain"
)

// WheelRepository 定义了事务之外的转盘/奖品读取，以及后台的启停操作。
type WheelRepository interface {
	// FindByRef 按 slug 或数字 ID 查找转盘。
	FindByRef(ctx context.Context, ref string) (*domain.Wheel, error)

	// FindByID 根据 ID 查找转盘。
	FindByID(ctx context.Context, id uint) (*domain.Wheel, error)

	// ListPrizes 返回转盘的全部奖品（含库存为 0 的），按权重升序。
	ListPrizes(ctx context.Context, wheelID uint) ([]domain.Prize, error)

	// SetEnabled 修改转盘启用状态。
	SetEnabled(ctx context.Context, wheelID uint, enabled bool) error
}
