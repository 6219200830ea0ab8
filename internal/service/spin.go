package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/repository"
	"prize-wheel/internal/selector"
)

// DefaultSpinMaxAttempts 是单次抽奖请求内部最多尝试的事务次数。
const DefaultSpinMaxAttempts = 5

// notifyTimeout 限制单次中奖通知的耗时，通知与抽奖请求的 context 脱离。
const notifyTimeout = 5 * time.Second

// SpinResult 是一次成功抽奖的结果。Prize 为扣减后的状态。
// ClaimToken 只能返回给发起者，是领奖的唯一凭证。
type SpinResult struct {
	WheelID     uint
	WheelSlug   string
	Prize       domain.Prize
	WinRecordID uint
	ClaimToken  string
	WonAt       time.Time
	Attempts    int
}

// WinNotifier 在抽奖提交后接收通知，失败不影响抽奖结果。
// 通知在后台 goroutine 中执行，不会推迟 Spin 返回。
type WinNotifier interface {
	NotifyWin(ctx context.Context, result *SpinResult) error
}

// SpinService 负责抽奖事务：选奖、条件扣减库存、写中奖记录。
type SpinService struct {
	store       repository.InventoryStore
	source      selector.Source
	maxAttempts int
	notifier    WinNotifier
	// notifying 跟踪仍在进行的中奖通知，关闭时等待它们结束
	notifying sync.WaitGroup
}

// SpinOption 调整 SpinService 的可选依赖
type SpinOption func(*SpinService)

// WithSource 替换随机源，测试中用于固定抽奖结果。
func WithSource(src selector.Source) SpinOption {
	return func(s *SpinService) { s.source = src }
}

// WithMaxAttempts 设置内部重试上限，<= 0 时使用默认值。
func WithMaxAttempts(n int) SpinOption {
	return func(s *SpinService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithNotifier 设置提交后的中奖通知。
func WithNotifier(n WinNotifier) SpinOption {
	return func(s *SpinService) { s.notifier = n }
}

// NewSpinService 创建 SpinService 实例
func NewSpinService(store repository.InventoryStore, opts ...SpinOption) *SpinService {
	if store == nil {
		panic("InventoryStore cannot be nil for SpinService")
	}
	s := &SpinService{
		store:       store,
		source:      selector.DefaultSource(),
		maxAttempts: DefaultSpinMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spin 在 wheelRef（slug 或 ID）对应的转盘上抽一次奖。
// 每次尝试都是一个独立事务；条件扣减未命中时回滚并从头重试，
// 直到成功或达到 maxAttempts，此时返回 ErrSpinContention。
func (s *SpinService) Spin(ctx context.Context, wheelRef string) (*SpinResult, error) {
	logCtx := logrus.WithField("wheel_ref", wheelRef)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var result *SpinResult
		err := s.store.WithinTx(ctx, func(tx repository.InventoryTx) error {
			var txErr error
			result, txErr = s.attempt(ctx, tx, wheelRef)
			return txErr
		})

		switch {
		case err == nil:
			result.Attempts = attempt
			logCtx.WithFields(logrus.Fields{
				"wheel_id":      result.WheelID,
				"prize_id":      result.Prize.ID,
				"win_record_id": result.WinRecordID,
				"attempt":       attempt,
			}).Info("Spin committed")
			s.notify(result)
			return result, nil
		case errors.Is(err, repository.ErrStockConflict):
			logCtx.WithField("attempt", attempt).Debug("Spin lost stock race, retrying")
			continue
		case errors.Is(err, ErrWheelNotFound), errors.Is(err, ErrWheelDisabled), errors.Is(err, ErrNoStock):
			return nil, err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			logCtx.WithError(err).WithField("attempt", attempt).Error("Spin transaction failed")
			return nil, fmt.Errorf("%w: %v", ErrInternalServer, err)
		}
	}

	logCtx.WithField("attempts", s.maxAttempts).Warn("Spin gave up after repeated stock conflicts")
	return nil, ErrSpinContention
}

// attempt 在一个事务内执行抽奖的全部步骤。
func (s *SpinService) attempt(ctx context.Context, tx repository.InventoryTx, wheelRef string) (*SpinResult, error) {
	// 1. 查找转盘并检查是否启用
	wheel, err := tx.FindWheel(ctx, wheelRef)
	if err != nil {
		if errors.Is(err, repository.ErrWheelNotFound) {
			return nil, ErrWheelNotFound
		}
		return nil, fmt.Errorf("find wheel: %w", err)
	}
	if !wheel.Enabled {
		return nil, ErrWheelDisabled
	}

	// 2. 在有库存的奖品中按权重抽取
	prizes, err := tx.ListAvailablePrizes(ctx, wheel.ID)
	if err != nil {
		return nil, fmt.Errorf("list available prizes: %w", err)
	}
	// 权重为 0 的奖品永远不会被抽中，不参与候选
	candidates := lo.FilterMap(prizes, func(p domain.Prize, _ int) (selector.Candidate, bool) {
		return selector.Candidate{ID: p.ID, Weight: p.Weight}, p.InStock() && p.Weight > 0
	})
	if len(candidates) == 0 {
		return nil, ErrNoStock
	}

	prizeID, err := selector.Pick(candidates, s.source)
	if err != nil {
		return nil, fmt.Errorf("pick prize: %w", err)
	}

	// 3. 条件扣减库存，被抢先时整轮重试
	ok, err := tx.DecrementStock(ctx, prizeID)
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	if !ok {
		return nil, repository.ErrStockConflict
	}

	// 4. 写入中奖记录并生成领奖凭证
	record := &domain.WinRecord{
		PrizeID:    prizeID,
		WheelID:    wheel.ID,
		WonAt:      time.Now().UTC(),
		ClaimToken: uuid.NewString(),
	}
	if err := tx.CreateWinRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("create win record: %w", err)
	}

	// 5. 读回扣减后的奖品
	prize, err := tx.GetPrize(ctx, prizeID)
	if err != nil {
		return nil, fmt.Errorf("reload prize: %w", err)
	}

	return &SpinResult{
		WheelID:     wheel.ID,
		WheelSlug:   wheel.Slug,
		Prize:       *prize,
		WinRecordID: record.ID,
		ClaimToken:  record.ClaimToken,
		WonAt:       record.WonAt,
	}, nil
}

// notify 在后台派发中奖通知。Spin 已经提交，调用方不应等待队列或 Redis。
func (s *SpinService) notify(result *SpinResult) {
	if s.notifier == nil {
		return
	}
	// 复制一份，调用方可能继续使用 result
	snapshot := *result

	s.notifying.Add(1)
	go func() {
		defer s.notifying.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyWin(ctx, &snapshot); err != nil {
			logrus.WithFields(logrus.Fields{
				"wheel_id":      snapshot.WheelID,
				"win_record_id": snapshot.WinRecordID,
			}).WithError(err).Warn("Failed to dispatch win notification")
		}
	}()
}

// WaitNotifications 阻塞直到所有已派发的中奖通知结束，用于优雅关闭。
func (s *SpinService) WaitNotifications() {
	s.notifying.Wait()
}
