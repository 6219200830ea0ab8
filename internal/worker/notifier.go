package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"prize-wheel/internal/service"
	"prize-wheel/internal/tasks"
)

// Enqueuer 由 *asynq.Client 实现
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqWinNotifier 把已提交的抽奖结果作为 win:recorded 任务入队，实现 service.WinNotifier
type AsynqWinNotifier struct {
	client Enqueuer
}

// NewAsynqWinNotifier 创建 AsynqWinNotifier 实例
func NewAsynqWinNotifier(client Enqueuer) *AsynqWinNotifier {
	if client == nil {
		panic("Enqueuer cannot be nil for AsynqWinNotifier")
	}
	return &AsynqWinNotifier{client: client}
}

// NotifyWin 实现 service.WinNotifier
func (n *AsynqWinNotifier) NotifyWin(ctx context.Context, result *service.SpinResult) error {
	task, err := tasks.NewWinRecordedTask(tasks.WinRecordedPayload{
		WinRecordID: result.WinRecordID,
		WheelID:     result.WheelID,
		PrizeID:     result.Prize.ID,
		PrizeLabel:  result.Prize.Label,
		NoWin:       result.Prize.NoWin,
		WonAt:       result.WonAt,
	})
	if err != nil {
		return err
	}
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue("default")); err != nil {
		return fmt.Errorf("enqueue %s: %w", tasks.TypeWinRecorded, err)
	}
	return nil
}
