package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/go-seat-booking/internal/notification"
)

// stubShowGateway は固定のショーを返すゲートウェイ
type stubShowGateway struct {
	shows map[string]*show.Show
}

func (g *stubShowGateway) GetByID(ctx context.Context, id string) (*show.Show, error) {
	sh, ok := g.shows[id]
	if !ok {
		return nil, show.ErrShowNotFound
	}
	return sh, nil
}

// countingNotifier は通知イベントを数えるだけの通知先
type countingNotifier struct {
	count atomic.Int64
}

func (n *countingNotifier) Dispatch(event notification.BookingConfirmedEvent) {
	n.count.Add(1)
}

type scenarioEnv struct {
	lockService         *LockService
	bookingService      *BookingService
	availabilityService *AvailabilityService
	notifier            *countingNotifier
}

// setupScenario はメモリストア上にサービス一式を組み立てる
// 競合防御はストアの原子的な挿入のみに依存する構成（Redisなし）
func setupScenario(lockTTL time.Duration) *scenarioEnv {
	store := memory.NewStore()
	lockRepo := memory.NewSeatLockRepository(store)
	bookingRepo := memory.NewBookingRepository(store)
	txManager := memory.NewTxManager()

	gateway := &stubShowGateway{shows: map[string]*show.Show{
		"show-1": {ID: "show-1", TheatreID: "theatre-1", MovieID: "movie-1", Price: 1200, StartAt: time.Now().Add(3 * time.Hour)},
	}}
	notifier := &countingNotifier{}

	return &scenarioEnv{
		lockService:         NewLockService(txManager, lockRepo, bookingRepo, gateway, nil, nil, lockTTL),
		bookingService:      NewBookingService(txManager, bookingRepo, lockRepo, gateway, nil, nil, notifier),
		availabilityService: NewAvailabilityService(bookingRepo, lockRepo, nil),
		notifier:            notifier,
	}
}

// TestScenario_FullBookingFlow はロック取得から予約確定までの完全なフロー
func TestScenario_FullBookingFlow(t *testing.T) {
	env := setupScenario(seatlock.DefaultTTL)
	ctx := context.Background()

	t.Run("ロック取得 → 可用性照会 → 予約確定 → ロック解放の確認", func(t *testing.T) {
		// 1. 座席ロックを取得
		locks, err := env.lockService.AcquireLocks(ctx, AcquireLocksInput{
			ShowID:  "show-1",
			UserID:  "user-tanaka",
			SeatIDs: []string{"A1", "A2"},
		})
		require.NoError(t, err)
		require.Len(t, locks, 2)

		// 2. 他ユーザーから見るとロック中の座席は確保できない
		unavailable, err := env.availabilityService.UnavailableSeats(ctx, "show-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"A1", "A2"}, unavailable)

		_, err = env.lockService.AcquireLocks(ctx, AcquireLocksInput{
			ShowID:  "show-1",
			UserID:  "user-suzuki",
			SeatIDs: []string{"A2", "A3"},
		})
		var unavailableErr *seatlock.SeatsUnavailableError
		require.ErrorAs(t, err, &unavailableErr)
		assert.Equal(t, []string{"A2"}, unavailableErr.SeatIDs)

		// 3. 予約を確定
		b, err := env.bookingService.ConfirmBooking(ctx, ConfirmBookingInput{
			UserID:  "user-tanaka",
			ShowID:  "show-1",
			SeatIDs: []string{"A1", "A2"},
		})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, b.Status)
		assert.Equal(t, 2400.0, b.Amount) // 1200 × 2

		// 4. 確定後はロックが解放され、座席は予約済みとして見える
		statuses, err := env.availabilityService.SeatStatuses(ctx, "show-1")
		require.NoError(t, err)
		assert.Equal(t, []SeatStatus{
			{SeatID: "A1", State: SeatStateBooked},
			{SeatID: "A2", State: SeatStateBooked},
		}, statuses)

		// 5. 予約済み座席は再ロックできない
		_, err = env.lockService.AcquireLocks(ctx, AcquireLocksInput{
			ShowID:  "show-1",
			UserID:  "user-suzuki",
			SeatIDs: []string{"A1"},
		})
		require.ErrorAs(t, err, &unavailableErr)

		// 6. 通知イベントが1件発火している
		assert.Equal(t, int64(1), env.notifier.count.Load())
	})
}

// TestScenario_ExpiredLockReclaimed は期限切れロックの座席が再取得可能になること
func TestScenario_ExpiredLockReclaimed(t *testing.T) {
	env := setupScenario(30 * time.Millisecond)
	ctx := context.Background()

	_, err := env.lockService.AcquireLocks(ctx, AcquireLocksInput{
		ShowID:  "show-1",
		UserID:  "user-tanaka",
		SeatIDs: []string{"B1"},
	})
	require.NoError(t, err)

	// 失効前は他ユーザーから取得できない
	_, err = env.lockService.AcquireLocks(ctx, AcquireLocksInput{
		ShowID:  "show-1",
		UserID:  "user-suzuki",
		SeatIDs: []string{"B1"},
	})
	require.Error(t, err)

	time.Sleep(50 * time.Millisecond)

	// 失効後は即座に再取得できる（清掃ワーカーを待たない）
	locks, err := env.lockService.AcquireLocks(ctx, AcquireLocksInput{
		ShowID:  "show-1",
		UserID:  "user-suzuki",
		SeatIDs: []string{"B1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "user-suzuki", locks[0].UserID)

	// 可用性にも新しい保持者のロックだけが見える
	unavailable, err := env.availabilityService.UnavailableSeats(ctx, "show-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B1"}, unavailable)
}

// TestScenario_ExpiredLockDoesNotBlockConfirm は自分のロックが失効していても
// 座席が他者に取られていなければ確定できること
func TestScenario_ExpiredLockDoesNotBlockConfirm(t *testing.T) {
	env := setupScenario(10 * time.Millisecond)
	ctx := context.Background()

	_, err := env.lockService.AcquireLocks(ctx, AcquireLocksInput{
		ShowID:  "show-1",
		UserID:  "user-tanaka",
		SeatIDs: []string{"C1"},
	})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	b, err := env.bookingService.ConfirmBooking(ctx, ConfirmBookingInput{
		UserID:  "user-tanaka",
		ShowID:  "show-1",
		SeatIDs: []string{"C1"},
	})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
}

// TestScenario_MultipleUsersCompeting は複数ユーザーが同じ座席を取り合うシナリオ
func TestScenario_MultipleUsersCompeting(t *testing.T) {
	env := setupScenario(seatlock.DefaultTTL)
	ctx := context.Background()

	t.Run("50人が同時に同じ座席をロック", func(t *testing.T) {
		const numUsers = 50
		var wg sync.WaitGroup
		var successCount atomic.Int64
		var conflictCount atomic.Int64

		for i := 0; i < numUsers; i++ {
			wg.Add(1)
			go func(userNum int) {
				defer wg.Done()
				_, err := env.lockService.AcquireLocks(ctx, AcquireLocksInput{
					ShowID:  "show-1",
					UserID:  userID(userNum),
					SeatIDs: []string{"S1"},
				})
				if err == nil {
					successCount.Add(1)
					return
				}
				var unavailableErr *seatlock.SeatsUnavailableError
				if assert.ErrorAs(t, err, &unavailableErr) {
					conflictCount.Add(1)
				}
			}(i)
		}
		wg.Wait()

		// 勝者はちょうど1人
		assert.Equal(t, int64(1), successCount.Load())
		assert.Equal(t, int64(numUsers-1), conflictCount.Load())
	})

	t.Run("同時確定でも二重販売は発生しない", func(t *testing.T) {
		const numUsers = 20
		var wg sync.WaitGroup
		var successCount atomic.Int64

		for i := 0; i < numUsers; i++ {
			wg.Add(1)
			go func(userNum int) {
				defer wg.Done()
				_, err := env.bookingService.ConfirmBooking(ctx, ConfirmBookingInput{
					UserID:  userID(userNum),
					ShowID:  "show-1",
					SeatIDs: []string{"S2"},
				})
				if err == nil {
					successCount.Add(1)
				}
			}(i)
		}
		wg.Wait()

		// 二重販売は発生しない
		assert.Equal(t, int64(1), successCount.Load())

		booked, err := env.availabilityService.UnavailableSeats(ctx, "show-1")
		require.NoError(t, err)
		assert.Contains(t, booked, "S2")
	})
}

func userID(n int) string {
	return "user-" + string(rune('a'+n%26)) + "-" + string(rune('0'+n/26))
}
