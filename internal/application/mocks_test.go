package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-seat-booking/internal/notification"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockSeatLockRepository implements seatlock.Repository
type MockSeatLockRepository struct {
	mock.Mock
}

func (m *MockSeatLockRepository) CreateBulk(ctx context.Context, tx transaction.Tx, locks []*seatlock.SeatLock) error {
	args := m.Called(ctx, tx, locks)
	return args.Error(0)
}

func (m *MockSeatLockRepository) GetActiveByShowID(ctx context.Context, showID string, now time.Time) ([]*seatlock.SeatLock, error) {
	args := m.Called(ctx, showID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seatlock.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepository) GetByUserAndShow(ctx context.Context, userID, showID string) ([]*seatlock.SeatLock, error) {
	args := m.Called(ctx, userID, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seatlock.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepository) DeleteByUserAndShow(ctx context.Context, tx transaction.Tx, userID, showID string) error {
	args := m.Called(ctx, tx, userID, showID)
	return args.Error(0)
}

func (m *MockSeatLockRepository) DeleteExpired(ctx context.Context, tx transaction.Tx, showID string, before time.Time) (int, error) {
	args := m.Called(ctx, tx, showID, before)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatLockRepository) DeleteExpiredBefore(ctx context.Context, before time.Time) (int, error) {
	args := m.Called(ctx, before)
	return args.Int(0), args.Error(1)
}

// MockBookingRepository implements booking.Repository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetBookedSeatsByShowID(ctx context.Context, showID string) ([]string, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBookingRepository) FindBookedSeats(ctx context.Context, showID string, seatIDs []string) ([]string, error) {
	args := m.Called(ctx, showID, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockShowGateway implements show.Gateway
type MockShowGateway struct {
	mock.Mock
}

func (m *MockShowGateway) GetByID(ctx context.Context, id string) (*show.Show, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*show.Show), args.Error(1)
}

// MockLockManager implements redisinfra.LockManagerInterface
type MockLockManager struct {
	mock.Mock
}

func (m *MockLockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

func (m *MockLockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl, maxRetries, retryDelay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

// MockLock implements redisinfra.Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLock) Extend(ctx context.Context, ttl time.Duration) error {
	args := m.Called(ctx, ttl)
	return args.Error(0)
}

// MockAvailabilityCache implements redisinfra.AvailabilityCacheInterface
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) GetUnavailableSeats(ctx context.Context, showID string) ([]string, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAvailabilityCache) SetUnavailableSeats(ctx context.Context, showID string, seatIDs []string, ttl time.Duration) error {
	args := m.Called(ctx, showID, seatIDs, ttl)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, showID string) error {
	args := m.Called(ctx, showID)
	return args.Error(0)
}

// MockNotifier implements Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Dispatch(event notification.BookingConfirmedEvent) {
	m.Called(event)
}
