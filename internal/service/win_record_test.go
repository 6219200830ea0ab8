package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/repository"
	"prize-wheel/internal/repository/mocks"
	"prize-wheel/internal/service"
)

func validClaim() service.ClaimRequest {
	return service.ClaimRequest{Name: "Ann", Phone: "0800", Address: "1 Main St"}
}

func TestWinRecordService_Claim_Success(t *testing.T) {
	mockRepo := new(mocks.WinRecordRepository)
	svc := service.NewWinRecordService(mockRepo)
	ctx := context.Background()
	now := time.Now()
	name := "Ann"

	mockRepo.On("FindByClaimToken", ctx, "tok-3").Return(&domain.WinRecord{ID: 3, PrizeID: 1, WheelID: 1, ClaimToken: "tok-3"}, nil).Once()
	mockRepo.On("UpdateClaim", ctx, uint(3), domain.ClaimDetails{Name: "Ann", Phone: "0800", Address: "1 Main St"}).
		Return(nil).Once()
	mockRepo.On("FindByID", ctx, uint(3)).
		Return(&domain.WinRecord{ID: 3, PrizeID: 1, WheelID: 1, WinnerName: &name, ClaimedAt: &now}, nil).Once()

	record, err := svc.Claim(ctx, "tok-3", validClaim())

	require.NoError(t, err)
	assert.True(t, record.Claimed())
	assert.Equal(t, "Ann", *record.WinnerName)
	mockRepo.AssertExpectations(t)
}

func TestWinRecordService_Claim_Invalid(t *testing.T) {
	mockRepo := new(mocks.WinRecordRepository)
	svc := service.NewWinRecordService(mockRepo)

	req := validClaim()
	req.Phone = ""
	_, err := svc.Claim(context.Background(), "tok-3", req)

	assert.ErrorIs(t, err, service.ErrInvalidClaim)
	mockRepo.AssertNotCalled(t, "FindByClaimToken", mock.Anything, mock.Anything)
}

func TestWinRecordService_Claim_NotFound(t *testing.T) {
	mockRepo := new(mocks.WinRecordRepository)
	svc := service.NewWinRecordService(mockRepo)
	ctx := context.Background()

	mockRepo.On("FindByClaimToken", ctx, "guessed").Return(nil, repository.ErrWinRecordNotFound).Once()

	_, err := svc.Claim(ctx, "guessed", validClaim())

	assert.ErrorIs(t, err, service.ErrWinRecordNotFound)
	mockRepo.AssertExpectations(t)
}

func TestWinRecordService_Claim_AlreadyClaimed(t *testing.T) {
	mockRepo := new(mocks.WinRecordRepository)
	svc := service.NewWinRecordService(mockRepo)
	ctx := context.Background()
	now := time.Now()

	mockRepo.On("FindByClaimToken", ctx, "tok-3").Return(&domain.WinRecord{ID: 3, ClaimedAt: &now}, nil).Once()

	_, err := svc.Claim(ctx, "tok-3", validClaim())

	assert.ErrorIs(t, err, service.ErrAlreadyClaimed)
	mockRepo.AssertNotCalled(t, "UpdateClaim", mock.Anything, mock.Anything, mock.Anything)
}

func TestWinRecordService_Claim_LostClaimRace(t *testing.T) {
	mockRepo := new(mocks.WinRecordRepository)
	svc := service.NewWinRecordService(mockRepo)
	ctx := context.Background()

	mockRepo.On("FindByClaimToken", ctx, "tok-3").Return(&domain.WinRecord{ID: 3}, nil).Once()
	mockRepo.On("UpdateClaim", ctx, uint(3), mock.AnythingOfType("domain.ClaimDetails")).
		Return(repository.ErrDuplicateEntry).Once()

	_, err := svc.Claim(ctx, "tok-3", validClaim())

	assert.ErrorIs(t, err, service.ErrAlreadyClaimed)
	mockRepo.AssertExpectations(t)
}

func TestWinRecordService_List(t *testing.T) {
	mockRepo := new(mocks.WinRecordRepository)
	svc := service.NewWinRecordService(mockRepo)
	ctx := context.Background()
	entries := []domain.WinLogEntry{{WinRecord: domain.WinRecord{ID: 1}, PrizeLabel: "A", PrizeColor: "#fff"}}

	mockRepo.On("List", ctx, service.DefaultWinLogLimit).Return(entries, nil).Once()
	mockRepo.On("List", ctx, 5).Return(nil, errors.New("db down")).Once()

	got, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	_, err = svc.List(ctx, 5)
	assert.ErrorIs(t, err, service.ErrInternalServer)
	mockRepo.AssertExpectations(t)
}
