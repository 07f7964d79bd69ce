package application

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
	redisinfra "github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// SeatState は座席の占有状態
type SeatState string

const (
	// SeatStateBooked は確定予約済み
	SeatStateBooked SeatState = "booked"
	// SeatStateLocked は未失効ロックで確保中
	SeatStateLocked SeatState = "locked"
)

// SeatStatus は座席IDと状態の組
type SeatStatus struct {
	SeatID string    `json:"seat_id"`
	State  SeatState `json:"state"`
}

// AvailabilityService は座席の利用不可状態への読み取り専用ビューを提供する
type AvailabilityService struct {
	bookingRepo booking.Repository
	lockRepo    seatlock.Repository
	cache       redisinfra.AvailabilityCacheInterface
}

// availabilityCacheTTL はロックのTTLより十分短くして失効の反映遅れを抑える
const availabilityCacheTTL = 10 * time.Second

// NewAvailabilityService は新しい AvailabilityService を作成する
// cache は nil 可
func NewAvailabilityService(br booking.Repository, lr seatlock.Repository, cache redisinfra.AvailabilityCacheInterface) *AvailabilityService {
	return &AvailabilityService{bookingRepo: br, lockRepo: lr, cache: cache}
}

// UnavailableSeats はショーで現在確保できない座席IDを昇順で返す
// （確定予約済み ∪ 未失効ロック中）純粋な読み取りで副作用はない
func (s *AvailabilityService) UnavailableSeats(ctx context.Context, showID string) ([]string, error) {
	if showID == "" {
		return nil, seatlock.ErrShowIDRequired
	}

	if s.cache != nil {
		seats, err := s.cache.GetUnavailableSeats(ctx, showID)
		if err == nil {
			return seats, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("可用性キャッシュの読み取りに失敗",
				zap.String("show_id", showID), zap.Error(err))
		}
	}

	seats, err := s.collectUnavailable(ctx, showID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetUnavailableSeats(ctx, showID, seats, availabilityCacheTTL); err != nil {
			logger.Warn("可用性キャッシュの書き込みに失敗",
				zap.String("show_id", showID), zap.Error(err))
		}
	}
	return seats, nil
}

// SeatStatuses は利用不可座席を状態付きで返す（予約済みが常に優先）
func (s *AvailabilityService) SeatStatuses(ctx context.Context, showID string) ([]SeatStatus, error) {
	if showID == "" {
		return nil, seatlock.ErrShowIDRequired
	}

	booked, err := s.bookingRepo.GetBookedSeatsByShowID(ctx, showID)
	if err != nil {
		return nil, err
	}
	locks, err := s.lockRepo.GetActiveByShowID(ctx, showID, time.Now())
	if err != nil {
		return nil, err
	}

	states := make(map[string]SeatState, len(booked)+len(locks))
	for _, l := range locks {
		states[l.SeatID] = SeatStateLocked
	}
	for _, seatID := range booked {
		states[seatID] = SeatStateBooked
	}

	statuses := make([]SeatStatus, 0, len(states))
	for seatID, state := range states {
		statuses = append(statuses, SeatStatus{SeatID: seatID, State: state})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].SeatID < statuses[j].SeatID })
	return statuses, nil
}

// BookedSeats は確定予約済みの座席IDを昇順で返す
func (s *AvailabilityService) BookedSeats(ctx context.Context, showID string) ([]string, error) {
	if showID == "" {
		return nil, seatlock.ErrShowIDRequired
	}
	booked, err := s.bookingRepo.GetBookedSeatsByShowID(ctx, showID)
	if err != nil {
		return nil, err
	}
	sort.Strings(booked)
	return booked, nil
}

// LockedSeats は未失効ロックで確保中の座席IDを昇順で返す
func (s *AvailabilityService) LockedSeats(ctx context.Context, showID string) ([]string, error) {
	if showID == "" {
		return nil, seatlock.ErrShowIDRequired
	}
	locks, err := s.lockRepo.GetActiveByShowID(ctx, showID, time.Now())
	if err != nil {
		return nil, err
	}
	seats := make([]string, 0, len(locks))
	for _, l := range locks {
		seats = append(seats, l.SeatID)
	}
	sort.Strings(seats)
	return seats, nil
}

func (s *AvailabilityService) collectUnavailable(ctx context.Context, showID string) ([]string, error) {
	booked, err := s.bookingRepo.GetBookedSeatsByShowID(ctx, showID)
	if err != nil {
		return nil, err
	}
	locks, err := s.lockRepo.GetActiveByShowID(ctx, showID, time.Now())
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(booked)+len(locks))
	for _, seatID := range booked {
		set[seatID] = struct{}{}
	}
	for _, l := range locks {
		set[l.SeatID] = struct{}{}
	}

	seats := make([]string, 0, len(set))
	for seatID := range set {
		seats = append(seats, seatID)
	}
	sort.Strings(seats)
	return seats, nil
}
