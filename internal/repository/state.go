package repository

import (
	"context"
	"time"
)

// WinEvent 是发布到 Pub/Sub 频道的中奖事件。
type WinEvent struct {
	WinRecordID uint      `json:"win_record_id"`
	WheelID     uint      `json:"wheel_id"`
	PrizeID     uint      `json:"prize_id"`
	PrizeLabel  string    `json:"prize_label"`
	NoWin       bool      `json:"no_win"`
	WonAt       time.Time `json:"won_at"`
}

// StateRepository 定义了与实时状态相关的操作，由 Redis 实现。
type StateRepository interface {
	// CheckRateLimit 检查给定 key 的请求频率是否超限，并递增计数。
	// key 是逻辑名称，如 "ip:1.2.3.4"，实现负责加上自己的命名空间。
	// 返回 true 表示超限。
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// PublishWinEvent 将中奖事件发布到转盘对应的频道。
	PublishWinEvent(ctx context.Context, event WinEvent) error
}
