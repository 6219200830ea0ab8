package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量
const (
	TypeWinRecorded     = "win:recorded"     // 抽奖提交后发布中奖事件
	TypeInventoryResync = "inventory:resync" // 周期性向在线房间推送完整库存
)

// WinRecordedPayload 描述一条已提交的中奖记录
type WinRecordedPayload struct {
	WinRecordID uint      `json:"win_record_id"`
	WheelID     uint      `json:"wheel_id"`
	PrizeID     uint      `json:"prize_id"`
	PrizeLabel  string    `json:"prize_label"`
	NoWin       bool      `json:"no_win"`
	WonAt       time.Time `json:"won_at"`
}

// NewWinRecordedTask 创建中奖事件任务
func NewWinRecordedTask(payload WinRecordedPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal win recorded payload: %w", err)
	}
	return asynq.NewTask(TypeWinRecorded, b, asynq.MaxRetry(5)), nil
}

// ParseWinRecordedPayload 解析中奖事件任务的 payload
func ParseWinRecordedPayload(t *asynq.Task) (WinRecordedPayload, error) {
	var p WinRecordedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, err
	}
	if p.WinRecordID == 0 {
		return p, fmt.Errorf("win record id missing from payload")
	}
	return p, nil
}

// NewInventoryResyncTask 创建库存校准任务，无 payload
func NewInventoryResyncTask() *asynq.Task {
	return asynq.NewTask(TypeInventoryResync, nil, asynq.MaxRetry(0))
}
