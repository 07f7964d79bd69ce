package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

type bookingEntry struct {
	booking booking.Booking
	seatIDs []string
}

// BookingRepository はインメモリの予約リポジトリ
type BookingRepository struct{ store *Store }

// NewBookingRepository は新しいリポジトリを作成する
func NewBookingRepository(store *Store) *BookingRepository {
	return &BookingRepository{store: store}
}

// Create は全席挿入できる場合のみ予約を作成する（全か無か）
// 確定済み座席との衝突は ErrSeatConflict
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seatID := range b.SeatIDs {
		if _, ok := s.bookedSeat[seatKey(b.ShowID, seatID)]; ok {
			return booking.ErrSeatConflict
		}
	}

	s.nextID++
	b.ID = fmt.Sprintf("booking-%d", s.nextID)
	seatIDs := make([]string, len(b.SeatIDs))
	copy(seatIDs, b.SeatIDs)
	s.bookings[b.ID] = bookingEntry{booking: *b, seatIDs: seatIDs}
	for _, seatID := range seatIDs {
		s.bookedSeat[seatKey(b.ShowID, seatID)] = b.ID
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return r.toEntity(e), nil
}

func (r *BookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*booking.Booking
	for _, e := range s.bookings {
		if e.booking.UserID == userID {
			result = append(result, r.toEntity(e))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *BookingRepository) GetBookedSeatsByShowID(ctx context.Context, showID string) ([]string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var seatIDs []string
	for _, e := range s.bookings {
		if e.booking.ShowID == showID && e.booking.Status == booking.StatusConfirmed {
			seatIDs = append(seatIDs, e.seatIDs...)
		}
	}
	return seatIDs, nil
}

func (r *BookingRepository) FindBookedSeats(ctx context.Context, showID string, seatIDs []string) ([]string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var conflicts []string
	for _, seatID := range seatIDs {
		if _, ok := s.bookedSeat[seatKey(showID, seatID)]; ok {
			conflicts = append(conflicts, seatID)
		}
	}
	return conflicts, nil
}

func (r *BookingRepository) toEntity(e bookingEntry) *booking.Booking {
	b := e.booking
	b.SeatIDs = make([]string, len(e.seatIDs))
	copy(b.SeatIDs, e.seatIDs)
	return &b
}

var _ booking.Repository = (*BookingRepository)(nil)
