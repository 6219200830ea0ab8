package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"prize-wheel/internal/repository"
	"prize-wheel/internal/tasks"
)

// WinRecordedHandler 在抽奖提交后把中奖事件发布到转盘频道
type WinRecordedHandler struct {
	records repository.WinRecordRepository
	state   repository.StateRepository
}

// NewWinRecordedHandler 创建 Handler 实例
func NewWinRecordedHandler(records repository.WinRecordRepository, state repository.StateRepository) *WinRecordedHandler {
	if records == nil {
		panic("WinRecordRepository cannot be nil for WinRecordedHandler")
	}
	if state == nil {
		panic("StateRepository cannot be nil for WinRecordedHandler")
	}
	return &WinRecordedHandler{records: records, state: state}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *WinRecordedHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)

	payload, err := tasks.ParseWinRecordedPayload(t)
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithField("win_record_id", payload.WinRecordID)

	// 只发布已经持久化的记录
	record, err := h.records.FindByID(ctx, payload.WinRecordID)
	if err != nil {
		if errors.Is(err, repository.ErrWinRecordNotFound) {
			logCtx.Warn("Win record not found, dropping event")
			return fmt.Errorf("win record %d not found: %w", payload.WinRecordID, asynq.SkipRetry)
		}
		return fmt.Errorf("load win record %d: %w", payload.WinRecordID, err)
	}

	event := repository.WinEvent{
		WinRecordID: record.ID,
		WheelID:     record.WheelID,
		PrizeID:     record.PrizeID,
		PrizeLabel:  payload.PrizeLabel,
		NoWin:       payload.NoWin,
		WonAt:       record.WonAt,
	}
	if err := h.state.PublishWinEvent(ctx, event); err != nil {
		logCtx.WithError(err).Error("Failed to publish win event")
		return err
	}

	logCtx.Info("Win event published")
	return nil
}

func taskLogger(ctx context.Context, t *asynq.Task) *logrus.Entry {
	taskID, _ := asynq.GetTaskID(ctx)
	queue, _ := asynq.GetQueueName(ctx)
	retry, _ := asynq.GetRetryCount(ctx)
	return logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"queue":     queue,
		"retry":     retry,
	})
}
