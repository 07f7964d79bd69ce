package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
	redisinfra "github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
)

func TestAvailabilityService_UnavailableSeats_CacheMiss(t *testing.T) {
	bookingRepo := new(MockBookingRepository)
	lockRepo := new(MockSeatLockRepository)
	cache := new(MockAvailabilityCache)
	service := NewAvailabilityService(bookingRepo, lockRepo, cache)
	ctx := context.Background()

	cache.On("GetUnavailableSeats", ctx, "show-1").Return(nil, redisinfra.ErrCacheMiss)
	bookingRepo.On("GetBookedSeatsByShowID", ctx, "show-1").Return([]string{"C1", "A1"}, nil)
	lockRepo.On("GetActiveByShowID", ctx, "show-1", mock.AnythingOfType("time.Time")).
		Return([]*seatlock.SeatLock{
			{SeatID: "B2", ExpiresAt: time.Now().Add(5 * time.Minute)},
			{SeatID: "A1", ExpiresAt: time.Now().Add(5 * time.Minute)}, // 予約済みと重複
		}, nil)
	cache.On("SetUnavailableSeats", ctx, "show-1", []string{"A1", "B2", "C1"}, availabilityCacheTTL).Return(nil)

	seats, err := service.UnavailableSeats(ctx, "show-1")

	require.NoError(t, err)
	// 和集合・昇順・重複なし
	assert.Equal(t, []string{"A1", "B2", "C1"}, seats)
	cache.AssertExpectations(t)
}

func TestAvailabilityService_UnavailableSeats_CacheHit(t *testing.T) {
	bookingRepo := new(MockBookingRepository)
	lockRepo := new(MockSeatLockRepository)
	cache := new(MockAvailabilityCache)
	service := NewAvailabilityService(bookingRepo, lockRepo, cache)
	ctx := context.Background()

	cache.On("GetUnavailableSeats", ctx, "show-1").Return([]string{"A1", "A2"}, nil)

	seats, err := service.UnavailableSeats(ctx, "show-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, seats)
	bookingRepo.AssertNotCalled(t, "GetBookedSeatsByShowID")
	lockRepo.AssertNotCalled(t, "GetActiveByShowID")
}

func TestAvailabilityService_UnavailableSeats_CacheErrorFallsThrough(t *testing.T) {
	bookingRepo := new(MockBookingRepository)
	lockRepo := new(MockSeatLockRepository)
	cache := new(MockAvailabilityCache)
	service := NewAvailabilityService(bookingRepo, lockRepo, cache)
	ctx := context.Background()

	// Redis 障害は照会を止めない
	cache.On("GetUnavailableSeats", ctx, "show-1").Return(nil, errors.New("接続エラー"))
	bookingRepo.On("GetBookedSeatsByShowID", ctx, "show-1").Return([]string{}, nil)
	lockRepo.On("GetActiveByShowID", ctx, "show-1", mock.AnythingOfType("time.Time")).
		Return([]*seatlock.SeatLock{}, nil)
	cache.On("SetUnavailableSeats", ctx, "show-1", []string{}, availabilityCacheTTL).Return(errors.New("接続エラー"))

	seats, err := service.UnavailableSeats(ctx, "show-1")

	require.NoError(t, err)
	assert.Empty(t, seats)
}

func TestAvailabilityService_UnavailableSeats_NoCache(t *testing.T) {
	bookingRepo := new(MockBookingRepository)
	lockRepo := new(MockSeatLockRepository)
	service := NewAvailabilityService(bookingRepo, lockRepo, nil)
	ctx := context.Background()

	bookingRepo.On("GetBookedSeatsByShowID", ctx, "show-1").Return([]string{"A1"}, nil)
	lockRepo.On("GetActiveByShowID", ctx, "show-1", mock.AnythingOfType("time.Time")).
		Return([]*seatlock.SeatLock{}, nil)

	seats, err := service.UnavailableSeats(ctx, "show-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, seats)
}

func TestAvailabilityService_UnavailableSeats_ShowIDRequired(t *testing.T) {
	service := NewAvailabilityService(new(MockBookingRepository), new(MockSeatLockRepository), nil)

	_, err := service.UnavailableSeats(context.Background(), "")
	assert.ErrorIs(t, err, seatlock.ErrShowIDRequired)
}

func TestAvailabilityService_SeatStatuses(t *testing.T) {
	bookingRepo := new(MockBookingRepository)
	lockRepo := new(MockSeatLockRepository)
	service := NewAvailabilityService(bookingRepo, lockRepo, nil)
	ctx := context.Background()

	bookingRepo.On("GetBookedSeatsByShowID", ctx, "show-1").Return([]string{"A1"}, nil)
	lockRepo.On("GetActiveByShowID", ctx, "show-1", mock.AnythingOfType("time.Time")).
		Return([]*seatlock.SeatLock{
			{SeatID: "B1", ExpiresAt: time.Now().Add(5 * time.Minute)},
			{SeatID: "A1", ExpiresAt: time.Now().Add(5 * time.Minute)},
		}, nil)

	statuses, err := service.SeatStatuses(ctx, "show-1")

	require.NoError(t, err)
	// 予約済みとロック中が重なった場合は予約済みが優先
	assert.Equal(t, []SeatStatus{
		{SeatID: "A1", State: SeatStateBooked},
		{SeatID: "B1", State: SeatStateLocked},
	}, statuses)
}

func TestAvailabilityService_BookedSeats(t *testing.T) {
	bookingRepo := new(MockBookingRepository)
	lockRepo := new(MockSeatLockRepository)
	service := NewAvailabilityService(bookingRepo, lockRepo, nil)
	ctx := context.Background()

	bookingRepo.On("GetBookedSeatsByShowID", ctx, "show-1").Return([]string{"C1", "A1"}, nil)

	seats, err := service.BookedSeats(ctx, "show-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "C1"}, seats)
	lockRepo.AssertNotCalled(t, "GetActiveByShowID")
}

func TestAvailabilityService_LockedSeats(t *testing.T) {
	bookingRepo := new(MockBookingRepository)
	lockRepo := new(MockSeatLockRepository)
	service := NewAvailabilityService(bookingRepo, lockRepo, nil)
	ctx := context.Background()

	lockRepo.On("GetActiveByShowID", ctx, "show-1", mock.AnythingOfType("time.Time")).
		Return([]*seatlock.SeatLock{
			{SeatID: "B2", ExpiresAt: time.Now().Add(5 * time.Minute)},
			{SeatID: "A3", ExpiresAt: time.Now().Add(5 * time.Minute)},
		}, nil)

	seats, err := service.LockedSeats(ctx, "show-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"A3", "B2"}, seats)
	bookingRepo.AssertNotCalled(t, "GetBookedSeatsByShowID")
}
