package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"prize-wheel/internal/service"
)

// RoomBroadcaster 由 hub.Hub 实现
type RoomBroadcaster interface {
	ActiveWheelIDs() []uint
	BroadcastWheelState(inv *service.WheelInventory)
}

// InventoryLoader 由 service.WheelService 实现
type InventoryLoader interface {
	InventoryByID(ctx context.Context, wheelID uint) (*service.WheelInventory, error)
}

// InventoryResyncHandler 周期性地把完整库存推送给每个在线房间，
// 弥补尽力而为广播中被丢弃的更新。
type InventoryResyncHandler struct {
	rooms  RoomBroadcaster
	wheels InventoryLoader
}

// NewInventoryResyncHandler 创建 Handler 实例
func NewInventoryResyncHandler(rooms RoomBroadcaster, wheels InventoryLoader) *InventoryResyncHandler {
	if rooms == nil {
		panic("RoomBroadcaster cannot be nil for InventoryResyncHandler")
	}
	if wheels == nil {
		panic("InventoryLoader cannot be nil for InventoryResyncHandler")
	}
	return &InventoryResyncHandler{rooms: rooms, wheels: wheels}
}

// ProcessTask 实现 asynq.Handler 接口。单个转盘失败只记录日志，不让整个周期任务失败。
func (h *InventoryResyncHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)

	wheelIDs := h.rooms.ActiveWheelIDs()
	if len(wheelIDs) == 0 {
		logCtx.Debug("No active rooms, skipping inventory resync")
		return nil
	}

	failed := 0
	for _, id := range wheelIDs {
		loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		inv, err := h.wheels.InventoryByID(loadCtx, id)
		cancel()
		if err != nil {
			failed++
			logCtx.WithError(err).WithField("wheel_id", id).Warn("Failed to load inventory for resync")
			continue
		}
		h.rooms.BroadcastWheelState(inv)
	}

	logCtx.WithFields(logrus.Fields{
		"rooms":  len(wheelIDs),
		"failed": failed,
	}).Info("Inventory resync completed")
	return nil
}
