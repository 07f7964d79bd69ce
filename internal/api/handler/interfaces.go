package handler

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
)

// LockServiceInterface は座席ロックサービスのインターフェース
type LockServiceInterface interface {
	AcquireLocks(ctx context.Context, input application.AcquireLocksInput) ([]*seatlock.SeatLock, error)
	ReleaseLocks(ctx context.Context, userID, showID string) error
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	ConfirmBooking(ctx context.Context, input application.ConfirmBookingInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error)
}

// AvailabilityServiceInterface は座席可用性サービスのインターフェース
type AvailabilityServiceInterface interface {
	UnavailableSeats(ctx context.Context, showID string) ([]string, error)
	SeatStatuses(ctx context.Context, showID string) ([]application.SeatStatus, error)
	BookedSeats(ctx context.Context, showID string) ([]string, error)
	LockedSeats(ctx context.Context, showID string) ([]string, error)
}
