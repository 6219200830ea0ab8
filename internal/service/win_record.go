package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/repository"
)

// DefaultWinLogLimit 是后台中奖列表的默认条数
const DefaultWinLogLimit = 100

// ClaimRequest 是领奖人提交的信息
type ClaimRequest struct {
	Name    string `json:"name" validate:"required,max=191"`
	Phone   string `json:"phone" validate:"required,max=64"`
	Address string `json:"address" validate:"required,max=1000"`
}

// WinRecordService 处理中奖记录的领取与查询。领奖从不修改库存。
type WinRecordService struct {
	records  repository.WinRecordRepository
	validate *validator.Validate
}

// NewWinRecordService 创建 WinRecordService 实例
func NewWinRecordService(records repository.WinRecordRepository) *WinRecordService {
	if records == nil {
		panic("WinRecordRepository cannot be nil for WinRecordService")
	}
	return &WinRecordService{records: records, validate: validator.New()}
}

// Claim 凭领奖凭证为中奖记录填写领奖人信息，只允许领取一次。
// 凭证只在抽奖结果中发给中奖者，未知凭证与不存在的记录一样返回 ErrWinRecordNotFound。
func (s *WinRecordService) Claim(ctx context.Context, claimToken string, req ClaimRequest) (*domain.WinRecord, error) {
	// 1. 校验领奖人信息
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}

	// 2. 凭凭证查找中奖记录
	record, err := s.records.FindByClaimToken(ctx, claimToken)
	if err != nil {
		if errors.Is(err, repository.ErrWinRecordNotFound) {
			return nil, ErrWinRecordNotFound
		}
		logrus.WithError(err).Error("Failed to load win record by claim token")
		return nil, ErrInternalServer
	}
	recordID := record.ID
	logCtx := logrus.WithField("win_record_id", recordID)
	if record.Claimed() {
		return nil, ErrAlreadyClaimed
	}

	// 3. 写入领奖信息，已领取的记录不会被覆盖
	details := domain.ClaimDetails{Name: req.Name, Phone: req.Phone, Address: req.Address}
	if err := s.records.UpdateClaim(ctx, recordID, details); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEntry):
			// 与另一个领取请求竞争失败
			return nil, ErrAlreadyClaimed
		case errors.Is(err, repository.ErrWinRecordNotFound):
			return nil, ErrWinRecordNotFound
		}
		logCtx.WithError(err).Error("Failed to save claim details")
		return nil, ErrInternalServer
	}

	// 4. 读回最新记录
	updated, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to reload win record after claim")
		return nil, ErrInternalServer
	}
	logCtx.Info("Prize claimed")
	return updated, nil
}

// FindByID 返回单条中奖记录
func (s *WinRecordService) FindByID(ctx context.Context, recordID uint) (*domain.WinRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrWinRecordNotFound) {
			return nil, ErrWinRecordNotFound
		}
		return nil, ErrInternalServer
	}
	return record, nil
}

// List 返回最近的中奖记录，limit <= 0 时使用默认值。
func (s *WinRecordService) List(ctx context.Context, limit int) ([]domain.WinLogEntry, error) {
	if limit <= 0 {
		limit = DefaultWinLogLimit
	}
	entries, err := s.records.List(ctx, limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to list win records")
		return nil, ErrInternalServer
	}
	return entries, nil
}
