package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

const dispatchTimeout = 10 * time.Second

// AsyncNotifier は通知配信をリクエストのライフタイムから切り離すワーカー
// Dispatch は決してブロックせず、配信失敗は予約結果に伝播しない
type AsyncNotifier struct {
	dispatcher Dispatcher
	queue      chan BookingConfirmedEvent
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewAsyncNotifier はワーカーを起動してノーティファイアを作成する
func NewAsyncNotifier(dispatcher Dispatcher, bufferSize int) *AsyncNotifier {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	n := &AsyncNotifier{
		dispatcher: dispatcher,
		queue:      make(chan BookingConfirmedEvent, bufferSize),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Dispatch はイベントをキューに積む（ノンブロッキング）
// バッファが満杯の場合はイベントを破棄してログに残す
func (n *AsyncNotifier) Dispatch(event BookingConfirmedEvent) {
	select {
	case n.queue <- event:
	default:
		logger.Warn("通知キューが満杯のためイベントを破棄",
			zap.String("booking_id", event.BookingID),
		)
		if m := metrics.Get(); m != nil {
			m.NotificationDispatchTotal.WithLabelValues("dropped").Inc()
		}
	}
}

// run はキューからイベントを取り出して順次配信する
func (n *AsyncNotifier) run() {
	defer n.wg.Done()
	for event := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		err := n.dispatcher.NotifyBookingConfirmed(ctx, event)
		cancel()

		if err != nil {
			logger.Error("予約確定通知の配信に失敗",
				zap.String("booking_id", event.BookingID),
				zap.Error(err),
			)
			if m := metrics.Get(); m != nil {
				m.NotificationDispatchTotal.WithLabelValues("failed").Inc()
			}
			continue
		}
		logger.Debug("予約確定通知を配信",
			zap.String("booking_id", event.BookingID),
		)
		if m := metrics.Get(); m != nil {
			m.NotificationDispatchTotal.WithLabelValues("success").Inc()
		}
	}
}

// Close はキューを閉じ、残りのイベントを配信し終えるまで待つ
func (n *AsyncNotifier) Close() {
	n.closeOnce.Do(func() {
		close(n.queue)
	})
	n.wg.Wait()
}
