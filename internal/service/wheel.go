package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/repository"
)

// WheelInventory 是转盘及其全部奖品的快照。
type WheelInventory struct {
	Wheel  domain.Wheel
	Prizes []domain.Prize
}

// WheelService 处理事务之外的转盘查询与启停。
type WheelService struct {
	wheels repository.WheelRepository
}

// NewWheelService 创建 WheelService 实例
func NewWheelService(wheels repository.WheelRepository) *WheelService {
	if wheels == nil {
		panic("WheelRepository cannot be nil for WheelService")
	}
	return &WheelService{wheels: wheels}
}

// FindByRef 按 slug 或 ID 查找转盘。
func (s *WheelService) FindByRef(ctx context.Context, ref string) (*domain.Wheel, error) {
	wheel, err := s.wheels.FindByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrWheelNotFound) {
			return nil, ErrWheelNotFound
		}
		logrus.WithField("wheel_ref", ref).WithError(err).Error("Failed to find wheel")
		return nil, ErrInternalServer
	}
	return wheel, nil
}

// Inventory 返回转盘及其全部奖品（含已售罄），奖品按权重升序。
func (s *WheelService) Inventory(ctx context.Context, ref string) (*WheelInventory, error) {
	wheel, err := s.FindByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.inventoryOf(ctx, wheel)
}

// InventoryByID 与 Inventory 相同，但按 ID 查找。
func (s *WheelService) InventoryByID(ctx context.Context, wheelID uint) (*WheelInventory, error) {
	wheel, err := s.wheels.FindByID(ctx, wheelID)
	if err != nil {
		if errors.Is(err, repository.ErrWheelNotFound) {
			return nil, ErrWheelNotFound
		}
		logrus.WithField("wheel_id", wheelID).WithError(err).Error("Failed to find wheel")
		return nil, ErrInternalServer
	}
	return s.inventoryOf(ctx, wheel)
}

func (s *WheelService) inventoryOf(ctx context.Context, wheel *domain.Wheel) (*WheelInventory, error) {
	prizes, err := s.wheels.ListPrizes(ctx, wheel.ID)
	if err != nil {
		logrus.WithField("wheel_id", wheel.ID).WithError(err).Error("Failed to list prizes")
		return nil, ErrInternalServer
	}
	return &WheelInventory{Wheel: *wheel, Prizes: prizes}, nil
}

// SetEnabled 启用或停用转盘，返回更新后的转盘。
// 停用只影响之后开始的抽奖，进行中的事务会在下一次尝试时看到新状态。
func (s *WheelService) SetEnabled(ctx context.Context, wheelID uint, enabled bool) (*domain.Wheel, error) {
	logCtx := logrus.WithFields(logrus.Fields{"wheel_id": wheelID, "enabled": enabled})

	if err := s.wheels.SetEnabled(ctx, wheelID, enabled); err != nil {
		if errors.Is(err, repository.ErrWheelNotFound) {
			return nil, ErrWheelNotFound
		}
		logCtx.WithError(err).Error("Failed to update wheel status")
		return nil, fmt.Errorf("%w: %v", ErrInternalServer, err)
	}
	wheel, err := s.wheels.FindByID(ctx, wheelID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to reload wheel after status update")
		return nil, ErrInternalServer
	}
	logCtx.Info("Wheel status updated")
	return wheel, nil
}
