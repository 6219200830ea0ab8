package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/repository"
	"prize-wheel/internal/repository/mocks"
	"prize-wheel/internal/service"
	"prize-wheel/internal/tasks"
	"prize-wheel/internal/worker"
)

func TestWinRecordedHandler_PublishesEvent(t *testing.T) {
	records := new(mocks.WinRecordRepository)
	state := new(mocks.StateRepository)
	h := worker.NewWinRecordedHandler(records, state)
	wonAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	task, err := tasks.NewWinRecordedTask(tasks.WinRecordedPayload{WinRecordID: 9, WheelID: 1, PrizeID: 2, PrizeLabel: "A"})
	require.NoError(t, err)

	records.On("FindByID", mock.Anything, uint(9)).Return(&domain.WinRecord{ID: 9, WheelID: 1, PrizeID: 2, WonAt: wonAt}, nil).Once()
	state.On("PublishWinEvent", mock.Anything, repository.WinEvent{
		WinRecordID: 9, WheelID: 1, PrizeID: 2, PrizeLabel: "A", WonAt: wonAt,
	}).Return(nil).Once()

	require.NoError(t, h.ProcessTask(context.Background(), task))
	records.AssertExpectations(t)
	state.AssertExpectations(t)
}

func TestWinRecordedHandler_Failures(t *testing.T) {
	records := new(mocks.WinRecordRepository)
	state := new(mocks.StateRepository)
	h := worker.NewWinRecordedHandler(records, state)
	ctx := context.Background()

	// 损坏的 payload 不重试
	err := h.ProcessTask(ctx, asynq.NewTask(tasks.TypeWinRecorded, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	missing, _ := tasks.NewWinRecordedTask(tasks.WinRecordedPayload{WinRecordID: 5})
	records.On("FindByID", mock.Anything, uint(5)).Return(nil, repository.ErrWinRecordNotFound).Once()
	assert.ErrorIs(t, h.ProcessTask(ctx, missing), asynq.SkipRetry)

	flaky, _ := tasks.NewWinRecordedTask(tasks.WinRecordedPayload{WinRecordID: 6})
	records.On("FindByID", mock.Anything, uint(6)).Return(&domain.WinRecord{ID: 6}, nil).Once()
	state.On("PublishWinEvent", mock.Anything, mock.AnythingOfType("repository.WinEvent")).Return(errors.New("redis down")).Once()
	err = h.ProcessTask(ctx, flaky)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "transient failures are retried")

	records.AssertExpectations(t)
	state.AssertExpectations(t)
}

type fakeRooms struct {
	active []uint
	pushed []uint
}

func (f *fakeRooms) ActiveWheelIDs() []uint { return f.active }
func (f *fakeRooms) BroadcastWheelState(inv *service.WheelInventory) {
	f.pushed = append(f.pushed, inv.Wheel.ID)
}

type fakeInventory map[uint]*service.WheelInventory

func (f fakeInventory) InventoryByID(ctx context.Context, id uint) (*service.WheelInventory, error) {
	inv, ok := f[id]
	if !ok {
		return nil, service.ErrWheelNotFound
	}
	return inv, nil
}

func TestInventoryResyncHandler(t *testing.T) {
	rooms := &fakeRooms{active: []uint{1, 2, 3}}
	inventory := fakeInventory{
		1: {Wheel: domain.Wheel{ID: 1}},
		3: {Wheel: domain.Wheel{ID: 3}},
	}
	h := worker.NewInventoryResyncHandler(rooms, inventory)

	require.NoError(t, h.ProcessTask(context.Background(), tasks.NewInventoryResyncTask()))
	assert.Equal(t, []uint{1, 3}, rooms.pushed)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func TestAsynqWinNotifier(t *testing.T) {
	enq := &fakeEnqueuer{}
	n := worker.NewAsynqWinNotifier(enq)
	result := &service.SpinResult{
		WheelID:     1,
		WinRecordID: 42,
		Prize:       domain.Prize{ID: 3, Label: "Try Again", NoWin: true},
	}

	require.NoError(t, n.NotifyWin(context.Background(), result))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, tasks.TypeWinRecorded, enq.tasks[0].Type())
	payload, err := tasks.ParseWinRecordedPayload(enq.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, uint(42), payload.WinRecordID)
	assert.True(t, payload.NoWin)

	enq.err = errors.New("redis down")
	assert.Error(t, n.NotifyWin(context.Background(), result))
}
