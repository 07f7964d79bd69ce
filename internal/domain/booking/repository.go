package booking

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// booking_seats の一意制約違反は ErrSeatConflict として返す
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)

	// GetBookedSeatsByShowID はショーの確定済み予約に含まれる全座席IDを取得する
	GetBookedSeatsByShowID(ctx context.Context, showID string) ([]string, error)

	// FindBookedSeats は指定座席のうち確定済み予約と競合するものを1クエリで返す
	FindBookedSeats(ctx context.Context, showID string, seatIDs []string) ([]string, error)
}
