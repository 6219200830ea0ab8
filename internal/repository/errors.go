package repository

import "errors"

// 通用的存储库错误
var (
	// ErrNotFound 表示请求的记录未找到
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry 表示违反了唯一约束
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrStockConflict 表示条件扣减未命中任何行：奖品已被并发抽奖抢先耗尽
	ErrStockConflict = errors.New("repository: stock conflict")
)

// 特定资源的错误
var (
	ErrWheelNotFound     = ErrNotFound
	ErrPrizeNotFound     = ErrNotFound
	ErrWinRecordNotFound = ErrNotFound
	ErrAdminNotFound     = ErrNotFound
)
