package seatlock

import (
	"context"
	"time"

	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// Repository は座席ロックリポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数のロックを一括作成する（トランザクション必須）
	// (show_id, seat_id) の一意制約違反は ErrLockConflict として返す
	CreateBulk(ctx context.Context, tx transaction.Tx, locks []*SeatLock) error

	// GetActiveByShowID はショーの未失効ロック一覧を取得する
	GetActiveByShowID(ctx context.Context, showID string, now time.Time) ([]*SeatLock, error)

	// GetByUserAndShow はユーザーがショーに対して保持するロック一覧を取得する
	GetByUserAndShow(ctx context.Context, userID, showID string) ([]*SeatLock, error)

	// DeleteByUserAndShow はユーザーがショーに対して保持する全ロックを削除する（トランザクション必須）
	DeleteByUserAndShow(ctx context.Context, tx transaction.Tx, userID, showID string) error

	// DeleteExpired はショーの期限切れロックを削除する（トランザクション必須）
	DeleteExpired(ctx context.Context, tx transaction.Tx, showID string, before time.Time) (int, error)

	// DeleteExpiredBefore は全ショーの期限切れロックを削除する（バックグラウンドの回収用）
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int, error)
}
