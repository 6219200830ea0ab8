package repository

import (
	"context"

	"prize-wheel/internal/domain"
)

// InventoryStore 是抽奖引擎对库存存储的全部要求：
// 事务内一致读取、可观察影响行数的条件扣减、跨扣减与中奖记录的原子提交/回滚。
type InventoryStore interface {
	// WithinTx 在单个事务中执行 fn。fn 返回 nil 时提交，否则回滚并原样返回该错误。
	WithinTx(ctx context.Context, fn func(tx InventoryTx) error) error
}

// InventoryTx 是一个进行中的库存事务。
type InventoryTx interface {
	// FindWheel 按 slug 或数字 ID 查找转盘，不存在时返回 ErrWheelNotFound。
	FindWheel(ctx context.Context, ref string) (*domain.Wheel, error)

	// ListAvailablePrizes 返回转盘下 stock > 0 的奖品，按 ID 升序。
	ListAvailablePrizes(ctx context.Context, wheelID uint) ([]domain.Prize, error)

	// DecrementStock 仅当写入时 stock 仍 > 0 才扣减 1。
	// 返回 false 表示未影响任何行（并发竞争失败）。
	DecrementStock(ctx context.Context, prizeID uint) (bool, error)

	// GetPrize 读取奖品当前状态（事务内可见扣减后的值）。
	GetPrize(ctx context.Context, prizeID uint) (*domain.Prize, error)

	// CreateWinRecord 插入中奖记录并回填 ID。
	CreateWinRecord(ctx context.Context, record *domain.WinRecord) error
}
