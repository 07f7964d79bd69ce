package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Booking は確定済み予約エンティティを表す
// 確定後はキャンセル経路を除き不変
type Booking struct {
	ID          string
	UserID      string
	ShowID      string
	TheatreID   string
	MovieID     string
	SeatIDs     []string // リクエスト順、重複なし
	Amount      float64
	Status      Status
	ConfirmedAt time.Time
	CreatedAt   time.Time
}

// NewBooking は確定済み予約を作成する
func NewBooking(userID, showID, theatreID, movieID string, seatIDs []string, amount float64) *Booking {
	now := time.Now()
	return &Booking{
		UserID:      userID,
		ShowID:      showID,
		TheatreID:   theatreID,
		MovieID:     movieID,
		SeatIDs:     seatIDs,
		Amount:      amount,
		Status:      StatusConfirmed,
		ConfirmedAt: now,
		CreatedAt:   now,
	}
}

// IsConfirmed は予約が確定済みかを返す
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.ShowID == "" {
		return ErrShowIDRequired
	}
	if len(b.SeatIDs) == 0 {
		return ErrSeatIDsRequired
	}
	if b.Amount < 0 {
		return ErrInvalidAmount
	}
	seen := make(map[string]struct{}, len(b.SeatIDs))
	for _, id := range b.SeatIDs {
		if id == "" {
			return ErrSeatIDsRequired
		}
		if _, ok := seen[id]; ok {
			return ErrDuplicateSeatID
		}
		seen[id] = struct{}{}
	}
	return nil
}
