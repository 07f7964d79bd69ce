package notification

import (
	"context"
	"time"
)

// BookingConfirmedEvent は予約確定時に下流（チケット生成・メッセージ配信）へ
// 渡されるイベント
type BookingConfirmedEvent struct {
	BookingID   string    `json:"booking_id"`
	UserID      string    `json:"user_id"`
	ShowID      string    `json:"show_id"`
	TheatreID   string    `json:"theatre_id"`
	MovieID     string    `json:"movie_id"`
	SeatIDs     []string  `json:"seat_ids"`
	Amount      float64   `json:"amount"`
	ConfirmedAt time.Time `json:"confirmed_at"`

	// 表示・配信用のメタデータ（空の場合あり）
	UserName  string `json:"user_name,omitempty"`
	UserPhone string `json:"user_phone,omitempty"`
	MovieName string `json:"movie_name,omitempty"`
	ShowTime  string `json:"show_time,omitempty"`
}

// Dispatcher は予約確定通知の配信インターフェース
// 配信の失敗は予約の成否に影響しない（呼び出し側でログのみ）
type Dispatcher interface {
	NotifyBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error
}
