// Package memory 提供进程内的库存存储，语义与 GORM 实现一致：
// 条件扣减在写入时检查 stock > 0，未提交的扣减只对本事务可见。
//
// 进行中的扣减记为预留（held），提交时才写入库存，回滚时释放预留。
// 其他事务读取的始终是已提交库存。对已被其他事务预留的最后一件库存做条件扣减时，
// 与数据库行锁一样等待持有者结束，再按提交后的库存重新判断。
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/repository"
)

// Store 同时实现 InventoryStore 与 WheelRepository。
type Store struct {
	mu      sync.Mutex
	wheels  map[uint]domain.Wheel
	prizes  map[uint]domain.Prize
	records map[uint]domain.WinRecord
	// held 是各奖品被进行中事务预留的数量
	held map[uint]int
	// released 在任一事务结束时关闭并替换，唤醒等待预留的扣减
	released chan struct{}

	nextWheelID  uint
	nextPrizeID  uint
	nextRecordID uint

	// BeforeDecrement 在每次条件扣减前调用（不持锁），返回 true 时本次扣减视为竞争失败。
	BeforeDecrement func(prizeID uint) bool
	// FailWinRecord 非 nil 时 CreateWinRecord 返回该错误，用于验证回滚。
	FailWinRecord error
}

// NewStore 创建空的 Store
func NewStore() *Store {
	return &Store{
		wheels:  make(map[uint]domain.Wheel),
		prizes:  make(map[uint]domain.Prize),
		records: make(map[uint]domain.WinRecord),
		held:     make(map[uint]int),
		released: make(chan struct{}),
	}
}

// AddWheel 写入转盘及其奖品并分配 ID，返回带 ID 的副本。
func (s *Store) AddWheel(wheel domain.Wheel, prizes ...domain.Prize) domain.Wheel {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextWheelID++
	wheel.ID = s.nextWheelID
	wheel.Prizes = nil
	s.wheels[wheel.ID] = wheel

	for _, p := range prizes {
		s.nextPrizeID++
		p.ID = s.nextPrizeID
		p.WheelID = wheel.ID
		s.prizes[p.ID] = p
		wheel.Prizes = append(wheel.Prizes, p)
	}
	return wheel
}

// Prize 返回奖品当前状态
func (s *Store) Prize(id uint) (domain.Prize, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prizes[id]
	return p, ok
}

// WinRecords 返回全部已提交的中奖记录，按 ID 升序
func (s *Store) WinRecords() []domain.WinRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.WinRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WithinTx 执行 fn；成功时把本事务的扣减和中奖记录一起提交，失败时只释放预留。
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.InventoryTx) error) error {
	tx := &memTx{store: s, decremented: make(map[uint]int)}
	err := fn(tx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tx.decremented) > 0 {
		defer s.wakeWaiters()
	}
	for id, n := range tx.decremented {
		s.release(id, n)
		if err != nil {
			continue
		}
		p := s.prizes[id]
		p.Stock -= n
		s.prizes[id] = p
	}
	if err != nil {
		return err
	}
	for _, r := range tx.pending {
		s.records[r.ID] = r
	}
	return nil
}

// release 调用方须持有锁
func (s *Store) release(prizeID uint, n int) {
	if s.held[prizeID] <= n {
		delete(s.held, prizeID)
		return
	}
	s.held[prizeID] -= n
}

// wakeWaiters 调用方须持有锁
func (s *Store) wakeWaiters() {
	close(s.released)
	s.released = make(chan struct{})
}

type memTx struct {
	store *Store
	// decremented 是本事务对每个奖品的扣减数
	decremented map[uint]int
	pending     []domain.WinRecord
}

func (t *memTx) FindWheel(ctx context.Context, ref string) (*domain.Wheel, error) {
	return t.store.FindByRef(ctx, ref)
}

// ListAvailablePrizes 以本事务视角返回有库存的奖品：已提交库存减去本事务的扣减。
func (t *memTx) ListAvailablePrizes(ctx context.Context, wheelID uint) ([]domain.Prize, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var out []domain.Prize
	for _, p := range t.store.prizes {
		p.Stock -= t.decremented[p.ID]
		if p.WheelID == wheelID && p.Stock > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DecrementStock 在已提交库存扣除所有预留后仍 > 0 时预留一件。
// 剩余库存全部被其他事务预留时，等待它们提交或回滚后重新判断。
func (t *memTx) DecrementStock(ctx context.Context, prizeID uint) (bool, error) {
	if hook := t.store.BeforeDecrement; hook != nil && hook(prizeID) {
		return false, nil
	}
	for {
		t.store.mu.Lock()
		p, ok := t.store.prizes[prizeID]
		if !ok {
			t.store.mu.Unlock()
			return false, nil
		}
		held := t.store.held[prizeID]
		if p.Stock-held > 0 {
			t.store.held[prizeID]++
			t.decremented[prizeID]++
			t.store.mu.Unlock()
			return true, nil
		}
		// 没有其他事务持有预留，库存确实已耗尽
		if held-t.decremented[prizeID] == 0 {
			t.store.mu.Unlock()
			return false, nil
		}
		wait := t.store.released
		t.store.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// GetPrize 返回本事务视角下的奖品，包含本事务尚未提交的扣减。
func (t *memTx) GetPrize(ctx context.Context, prizeID uint) (*domain.Prize, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	p, ok := t.store.prizes[prizeID]
	if !ok {
		return nil, repository.ErrPrizeNotFound
	}
	p.Stock -= t.decremented[prizeID]
	return &p, nil
}

func (t *memTx) CreateWinRecord(ctx context.Context, record *domain.WinRecord) error {
	if t.store.FailWinRecord != nil {
		return t.store.FailWinRecord
	}
	t.store.mu.Lock()
	t.store.nextRecordID++
	record.ID = t.store.nextRecordID
	t.store.mu.Unlock()
	if record.WonAt.IsZero() {
		record.WonAt = time.Now().UTC()
	}
	t.pending = append(t.pending, *record)
	return nil
}

// --- WheelRepository ---

func (s *Store) FindByRef(ctx context.Context, ref string) (*domain.Wheel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, idErr := strconv.ParseUint(ref, 10, 64)
	for _, w := range s.wheels {
		if w.Slug == ref || (idErr == nil && w.ID == uint(id)) {
			w := w
			return &w, nil
		}
	}
	return nil, repository.ErrWheelNotFound
}

func (s *Store) FindByID(ctx context.Context, id uint) (*domain.Wheel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return nil, repository.ErrWheelNotFound
	}
	return &w, nil
}

func (s *Store) ListPrizes(ctx context.Context, wheelID uint) ([]domain.Prize, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Prize
	for _, p := range s.prizes {
		if p.WheelID == wheelID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SetEnabled(ctx context.Context, wheelID uint, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wheels[wheelID]
	if !ok {
		return repository.ErrWheelNotFound
	}
	w.Enabled = enabled
	s.wheels[wheelID] = w
	return nil
}
