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
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

// ErrSeatsBusy は同じショーの処理が他リクエストで進行中の場合のエラー
var ErrSeatsBusy = errors.New("座席が他のユーザーによって処理中です")

const (
	showLockTTL        = 10 * time.Second
	showLockMaxRetries = 3
	showLockRetryDelay = 100 * time.Millisecond
)

// LockService は座席ロックの取得・解放プロトコルを所有する
//
// 競合チェックと挿入はショー単位で直列化される（Redis分散ロック）
// さらにストアの (show_id, seat_id) 一意制約が残余レースの防波堤になる
type LockService struct {
	txManager   transaction.Manager
	lockRepo    seatlock.Repository
	bookingRepo booking.Repository
	showGateway show.Gateway
	lockManager redisinfra.LockManagerInterface
	cache       redisinfra.AvailabilityCacheInterface
	lockTTL     time.Duration
}

// NewLockService は新しい LockService を作成する
// lockManager / cache は nil 可（単一プロセスやテストではストア制約のみで保護）
func NewLockService(
	tm transaction.Manager,
	lr seatlock.Repository,
	br booking.Repository,
	sg show.Gateway,
	lm redisinfra.LockManagerInterface,
	cache redisinfra.AvailabilityCacheInterface,
	lockTTL time.Duration,
) *LockService {
	if lockTTL <= 0 {
		lockTTL = seatlock.DefaultTTL
	}
	return &LockService{
		txManager: tm, lockRepo: lr, bookingRepo: br,
		showGateway: sg, lockManager: lm, cache: cache, lockTTL: lockTTL,
	}
}

// AcquireLocksInput は座席ロック取得の入力
type AcquireLocksInput struct {
	ShowID  string
	UserID  string
	SeatIDs []string
}

// AcquireLocks は指定座席のロックをまとめて取得する
//
// 取得は全か無か: 1席でも競合すればロックは一切作成されず、
// 競合した座席の全件が SeatsUnavailableError として返る
// 同一ユーザーが保持中の未失効ロックの再取得も競合として扱う（自己延長なし）
func (s *LockService) AcquireLocks(ctx context.Context, input AcquireLocksInput) ([]*seatlock.SeatLock, error) {
	if input.ShowID == "" {
		return nil, seatlock.ErrShowIDRequired
	}
	if input.UserID == "" {
		return nil, seatlock.ErrUserIDRequired
	}
	// リクエスト内の重複座席は単一の候補に畳む
	seatIDs := seatlock.DedupeSeatIDs(input.SeatIDs)
	if len(seatIDs) == 0 {
		return nil, seatlock.ErrSeatIDsRequired
	}

	// ショー存在確認（NotFound と Unavailable は区別して伝播）
	if _, err := s.showGateway.GetByID(ctx, input.ShowID); err != nil {
		countLock(lockStatusFromErr(err))
		return nil, err
	}

	// ショー単位の排他区間
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, showLockKey(input.ShowID), showLockTTL, showLockMaxRetries, showLockRetryDelay)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				countLock("busy")
				return nil, ErrSeatsBusy
			}
			countLock("error")
			return nil, fmt.Errorf("ショーロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	now := time.Now()

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		countLock("error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 日和見的な掃除: 期限切れロックをこのショーについて回収する
	// 読み取り側も expires_at で除外するため正しさはこれに依存しない
	if _, err := s.lockRepo.DeleteExpired(ctx, tx, input.ShowID, now); err != nil {
		countLock("error")
		return nil, err
	}

	// 競合チェック: 確定済み予約 ∪ 未失効ロック（保持者を問わない）
	conflicts, err := s.findConflicts(ctx, input.ShowID, seatIDs, now)
	if err != nil {
		countLock("error")
		return nil, err
	}
	if len(conflicts) > 0 {
		countLock("conflict")
		return nil, &seatlock.SeatsUnavailableError{SeatIDs: conflicts}
	}

	locks, err := seatlock.NewSeatLocks(input.ShowID, input.UserID, seatIDs, s.lockTTL)
	if err != nil {
		countLock("error")
		return nil, err
	}

	if err := s.lockRepo.CreateBulk(ctx, tx, locks); err != nil {
		// ストアの一意制約に当たった場合もチェック時と同じ競合として返す
		if errors.Is(err, seatlock.ErrLockConflict) {
			countLock("conflict")
			return nil, &seatlock.SeatsUnavailableError{SeatIDs: seatIDs}
		}
		countLock("error")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		countLock("error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, input.ShowID)
	countLock("success")
	return locks, nil
}

// ReleaseLocks はユーザーがショーに対して保持する全ロックを解放する
func (s *LockService) ReleaseLocks(ctx context.Context, userID, showID string) error {
	if userID == "" {
		return seatlock.ErrUserIDRequired
	}
	if showID == "" {
		return seatlock.ErrShowIDRequired
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockRepo.DeleteByUserAndShow(ctx, tx, userID, showID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, showID)
	return nil
}

// ReleaseExpiredLocks は全ショーの期限切れロックを回収する（バックグラウンド用）
func (s *LockService) ReleaseExpiredLocks(ctx context.Context) (int, error) {
	count, err := s.lockRepo.DeleteExpiredBefore(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if m := metrics.Get(); m != nil && count > 0 {
		m.ExpiredLocksReaped.Add(float64(count))
	}
	return count, nil
}

// findConflicts は要求座席のうち確保できないものをリクエスト順で返す
func (s *LockService) findConflicts(ctx context.Context, showID string, seatIDs []string, now time.Time) ([]string, error) {
	booked, err := s.bookingRepo.FindBookedSeats(ctx, showID, seatIDs)
	if err != nil {
		return nil, err
	}
	activeLocks, err := s.lockRepo.GetActiveByShowID(ctx, showID, now)
	if err != nil {
		return nil, err
	}

	unavailable := make(map[string]struct{}, len(booked)+len(activeLocks))
	for _, seatID := range booked {
		unavailable[seatID] = struct{}{}
	}
	for _, l := range activeLocks {
		unavailable[l.SeatID] = struct{}{}
	}

	var conflicts []string
	for _, seatID := range seatIDs {
		if _, ok := unavailable[seatID]; ok {
			conflicts = append(conflicts, seatID)
		}
	}
	return conflicts, nil
}

func (s *LockService) invalidateCache(ctx context.Context, showID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, showID); err != nil {
		logger.Warn("可用性キャッシュの無効化に失敗",
			zap.String("show_id", showID), zap.Error(err))
	}
}

func showLockKey(showID string) string {
	return "show:" + showID
}

func countLock(status string) {
	if m := metrics.Get(); m != nil {
		m.SeatLocksTotal.WithLabelValues(status).Inc()
	}
}

func lockStatusFromErr(err error) string {
	switch {
	case errors.Is(err, show.ErrShowNotFound):
		return "show_not_found"
	case errors.Is(err, show.ErrShowServiceUnavailable):
		return "upstream_error"
	default:
		return "error"
	}
}
