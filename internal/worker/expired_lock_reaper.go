package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// LockReleaser は期限切れの座席ロックを回収するインターフェース
type LockReleaser interface {
	ReleaseExpiredLocks(ctx context.Context) (int, error)
}

// ExpiredLockReaper は期限切れロックを定期的に回収するワーカー
// 正しさのためではなくストアの掃除のために動く: 読み取りは常に
// expires_at で失効ロックを除外し、取得経路もショー単位で掃除する
type ExpiredLockReaper struct {
	lockService LockReleaser
	interval    time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewExpiredLockReaper は新しいリーパーを作成
func NewExpiredLockReaper(ls LockReleaser, interval time.Duration) *ExpiredLockReaper {
	return &ExpiredLockReaper{
		lockService: ls,
		interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start はリーパーを開始
func (r *ExpiredLockReaper) Start(ctx context.Context) {
	logger.Info("期限切れロックリーパー開始",
		zap.Duration("interval", r.interval),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れロックリーパー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("期限切れロックリーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

// Stop はリーパーを停止
func (r *ExpiredLockReaper) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// reap は期限切れロックを回収
func (r *ExpiredLockReaper) reap(ctx context.Context) {
	log := logger.Get()
	log.Debug("期限切れロックの回収開始")

	count, err := r.lockService.ReleaseExpiredLocks(ctx)
	if err != nil {
		log.Error("期限切れロックの回収失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("期限切れロックを回収", zap.Int("count", count))
	} else {
		log.Debug("期限切れロックなし")
	}
}
