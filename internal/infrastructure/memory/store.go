// Package memory はインメモリの予約ストア実装を提供する
// デモ・テスト用途で、ストアレベルの (show_id, seat_id) 一意性を
// PostgreSQL実装と同じ意味論で強制する
package memory

import (
	"context"
	"sync"

	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// Store はロックと予約を保持する共有インメモリストア
// 全操作が単一のミューテックスで直列化され、各メソッドはアトミックに実行される
type Store struct {
	mu sync.Mutex

	// "showID\x00seatID" → lock ID（未失効・期限切れ両方を含む）
	lockBySeat map[string]lockEntry
	// lock ID → エントリ
	locks map[string]lockEntry

	// booking ID → エントリ
	bookings map[string]bookingEntry
	// "showID\x00seatID" → booking ID（確定済みのみ）
	bookedSeat map[string]string

	nextID int
}

// NewStore は空のストアを作成する
func NewStore() *Store {
	return &Store{
		lockBySeat: make(map[string]lockEntry),
		locks:      make(map[string]lockEntry),
		bookings:   make(map[string]bookingEntry),
		bookedSeat: make(map[string]string),
	}
}

func seatKey(showID, seatID string) string {
	return showID + "\x00" + seatID
}

// --- transaction.Manager 実装 ---

// PostgreSQL実装と違い各リポジトリ操作がそれ自体アトミックなため、
// トランザクションは境界の印としてのみ機能する
type memTx struct{}

func (t *memTx) Commit() error   { return nil }
func (t *memTx) Rollback() error { return nil }

// TxManager はインメモリストア用の transaction.Manager
type TxManager struct{}

// NewTxManager は新しい TxManager を作成する
func NewTxManager() *TxManager { return &TxManager{} }

// Begin は新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	return &memTx{}, nil
}

var _ transaction.Manager = (*TxManager)(nil)
