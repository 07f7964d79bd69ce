package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-seat-booking/internal/notification"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

// Notifier は予約確定イベントの通知先
// 通知の失敗・遅延が予約確定を妨げてはならないため発火のみで結果を待たない
type Notifier interface {
	Dispatch(event notification.BookingConfirmedEvent)
}

// BookingService は予約確定とその後片付け（ロック解放・通知）を所有する
type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	lockRepo    seatlock.Repository
	showGateway show.Gateway
	lockManager redisinfra.LockManagerInterface
	cache       redisinfra.AvailabilityCacheInterface
	notifier    Notifier
}

// NewBookingService は新しい BookingService を作成する
// lockManager / cache / notifier は nil 可
func NewBookingService(
	tm transaction.Manager,
	br booking.Repository,
	lr seatlock.Repository,
	sg show.Gateway,
	lm redisinfra.LockManagerInterface,
	cache redisinfra.AvailabilityCacheInterface,
	notifier Notifier,
) *BookingService {
	return &BookingService{
		txManager: tm, bookingRepo: br, lockRepo: lr,
		showGateway: sg, lockManager: lm, cache: cache, notifier: notifier,
	}
}

// ConfirmBookingInput は予約確定の入力
// UserName / UserPhone は通知イベントに引き継がれる任意項目
type ConfirmBookingInput struct {
	UserID    string
	ShowID    string
	SeatIDs   []string
	UserName  string
	UserPhone string
}

// ConfirmBooking は座席を確定予約に変換する
//
// 競合チェックは確定済み予約のみを対象とする: 呼び出し側のロックは
// 失効していてもよく、他者のロックは予約を妨げない（確定予約が常に優先）
// 確定後は同ユーザー・同ショーの全ロックを解放する
func (s *BookingService) ConfirmBooking(ctx context.Context, input ConfirmBookingInput) (*booking.Booking, error) {
	if input.UserID == "" {
		return nil, booking.ErrUserIDRequired
	}
	if input.ShowID == "" {
		return nil, booking.ErrShowIDRequired
	}
	seatIDs := seatlock.DedupeSeatIDs(input.SeatIDs)
	if len(seatIDs) == 0 {
		return nil, booking.ErrSeatIDsRequired
	}

	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, showLockKey(input.ShowID), showLockTTL, showLockMaxRetries, showLockRetryDelay)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				countBooking("busy")
				return nil, ErrSeatsBusy
			}
			countBooking("error")
			return nil, fmt.Errorf("ショーロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	// 二重販売チェック: 確定済み予約との重複のみ見る
	conflicts, err := s.bookingRepo.FindBookedSeats(ctx, input.ShowID, seatIDs)
	if err != nil {
		countBooking("error")
		return nil, err
	}
	if len(conflicts) > 0 {
		countBooking("conflict")
		return nil, &booking.SeatsAlreadyBookedError{SeatIDs: orderByRequest(seatIDs, conflicts)}
	}

	// 価格・上映メタデータはショーサービスが正とする
	sh, err := s.showGateway.GetByID(ctx, input.ShowID)
	if err != nil {
		countBooking(bookingStatusFromErr(err))
		return nil, err
	}

	b := booking.NewBooking(input.UserID, sh.ID, sh.TheatreID, sh.MovieID, seatIDs, sh.Price*float64(len(seatIDs)))
	if err := b.Validate(); err != nil {
		countBooking("error")
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		countBooking("error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		if errors.Is(err, booking.ErrSeatConflict) {
			countBooking("conflict")
			return nil, &booking.SeatsAlreadyBookedError{SeatIDs: seatIDs}
		}
		countBooking("error")
		return nil, err
	}

	// 確定したユーザーのロックは役目を終える（座席単位ではなくショー単位で解放）
	if err := s.lockRepo.DeleteByUserAndShow(ctx, tx, input.UserID, input.ShowID); err != nil {
		countBooking("error")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		countBooking("error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, input.ShowID)
	s.notifyConfirmed(b, input, sh.StartAt)
	countBooking("success")
	return b, nil
}

// GetBooking は予約をIDで取得する
func (s *BookingService) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	if id == "" {
		return nil, booking.ErrBookingNotFound
	}
	return s.bookingRepo.GetByID(ctx, id)
}

// GetUserBookings はユーザーの予約履歴を新しい順で取得する
func (s *BookingService) GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	if userID == "" {
		return nil, booking.ErrUserIDRequired
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.GetByUserID(ctx, userID, limit, offset)
}

func (s *BookingService) notifyConfirmed(b *booking.Booking, input ConfirmBookingInput, startAt time.Time) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(notification.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		ShowID:      b.ShowID,
		TheatreID:   b.TheatreID,
		MovieID:     b.MovieID,
		SeatIDs:     b.SeatIDs,
		Amount:      b.Amount,
		ConfirmedAt: b.ConfirmedAt,
		UserName:    input.UserName,
		UserPhone:   input.UserPhone,
		ShowTime:    startAt.Format(time.RFC3339),
	})
}

func (s *BookingService) invalidateCache(ctx context.Context, showID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, showID); err != nil {
		logger.Warn("可用性キャッシュの無効化に失敗",
			zap.String("show_id", showID), zap.Error(err))
	}
}

// orderByRequest は競合座席をリクエストの座席順に並べ直す
func orderByRequest(requested, conflicts []string) []string {
	set := make(map[string]struct{}, len(conflicts))
	for _, id := range conflicts {
		set[id] = struct{}{}
	}
	ordered := make([]string, 0, len(conflicts))
	for _, id := range requested {
		if _, ok := set[id]; ok {
			ordered = append(ordered, id)
		}
	}
	return ordered
}

func countBooking(status string) {
	if m := metrics.Get(); m != nil {
		m.BookingsTotal.WithLabelValues(status).Inc()
	}
}

func bookingStatusFromErr(err error) string {
	switch {
	case errors.Is(err, show.ErrShowNotFound):
		return "show_not_found"
	case errors.Is(err, show.ErrShowServiceUnavailable):
		return "upstream_error"
	default:
		return "error"
	}
}
