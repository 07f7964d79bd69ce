package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaDispatcher は予約確定イベントをKafkaトピックへ発行する
type KafkaDispatcher struct {
	writer *kafka.Writer
}

// NewKafkaDispatcher は新しいディスパッチャーを作成する
func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // ショーID単位で順序を保つ
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaDispatcher{writer: writer}
}

// NotifyBookingConfirmed はイベントをJSONで発行する
func (d *KafkaDispatcher) NotifyBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベントのエンコードに失敗: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ShowID),
		Value: payload,
	}
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}
	return nil
}

// Close はKafkaライターを閉じる
func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

var _ Dispatcher = (*KafkaDispatcher)(nil)
