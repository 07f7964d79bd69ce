package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

type lockEntry struct {
	lock seatlock.SeatLock
}

// SeatLockRepository はインメモリの座席ロックリポジトリ
type SeatLockRepository struct{ store *Store }

// NewSeatLockRepository は新しいリポジトリを作成する
func NewSeatLockRepository(store *Store) *SeatLockRepository {
	return &SeatLockRepository{store: store}
}

// CreateBulk は全件挿入できる場合のみ挿入する（全か無か）
// 既存のロック済み座席・予約済み座席との衝突は ErrLockConflict
func (r *SeatLockRepository) CreateBulk(ctx context.Context, tx transaction.Tx, locks []*seatlock.SeatLock) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range locks {
		key := seatKey(l.ShowID, l.SeatID)
		if _, ok := s.lockBySeat[key]; ok {
			return seatlock.ErrLockConflict
		}
		if _, ok := s.bookedSeat[key]; ok {
			return seatlock.ErrLockConflict
		}
	}

	for _, l := range locks {
		s.nextID++
		l.ID = fmt.Sprintf("lock-%d", s.nextID)
		entry := lockEntry{lock: *l}
		s.locks[l.ID] = entry
		s.lockBySeat[seatKey(l.ShowID, l.SeatID)] = entry
	}
	return nil
}

func (r *SeatLockRepository) GetActiveByShowID(ctx context.Context, showID string, now time.Time) ([]*seatlock.SeatLock, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*seatlock.SeatLock
	for _, e := range s.locks {
		if e.lock.ShowID == showID && e.lock.ExpiresAt.After(now) {
			l := e.lock
			result = append(result, &l)
		}
	}
	return result, nil
}

func (r *SeatLockRepository) GetByUserAndShow(ctx context.Context, userID, showID string) ([]*seatlock.SeatLock, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*seatlock.SeatLock
	for _, e := range s.locks {
		if e.lock.UserID == userID && e.lock.ShowID == showID {
			l := e.lock
			result = append(result, &l)
		}
	}
	return result, nil
}

func (r *SeatLockRepository) DeleteByUserAndShow(ctx context.Context, tx transaction.Tx, userID, showID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.locks {
		if e.lock.UserID == userID && e.lock.ShowID == showID {
			delete(s.locks, id)
			delete(s.lockBySeat, seatKey(e.lock.ShowID, e.lock.SeatID))
		}
	}
	return nil
}

func (r *SeatLockRepository) DeleteExpired(ctx context.Context, tx transaction.Tx, showID string, before time.Time) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, e := range s.locks {
		if e.lock.ShowID == showID && !e.lock.ExpiresAt.After(before) {
			delete(s.locks, id)
			delete(s.lockBySeat, seatKey(e.lock.ShowID, e.lock.SeatID))
			count++
		}
	}
	return count, nil
}

func (r *SeatLockRepository) DeleteExpiredBefore(ctx context.Context, before time.Time) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, e := range s.locks {
		if !e.lock.ExpiresAt.After(before) {
			delete(s.locks, id)
			delete(s.lockBySeat, seatKey(e.lock.ShowID, e.lock.SeatID))
			count++
		}
	}
	return count, nil
}

var _ seatlock.Repository = (*SeatLockRepository)(nil)
