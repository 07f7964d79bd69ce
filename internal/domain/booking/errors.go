package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound = errors.New("予約が見つかりません")
	ErrSeatConflict    = errors.New("座席は既に予約済みです")
	ErrUserIDRequired  = errors.New("ユーザーIDは必須です")
	ErrShowIDRequired  = errors.New("ショーIDは必須です")
	ErrSeatIDsRequired = errors.New("座席IDは必須です")
	ErrDuplicateSeatID = errors.New("座席IDが重複しています")
	ErrInvalidAmount   = errors.New("金額は0以上である必要があります")
)

// SeatsAlreadyBookedError は確定済み予約と競合した座席の一覧を保持するエラー
type SeatsAlreadyBookedError struct {
	SeatIDs []string
}

func (e *SeatsAlreadyBookedError) Error() string {
	return fmt.Sprintf("座席は既に予約済みです: %s", strings.Join(e.SeatIDs, ", "))
}

// Is は errors.Is(err, ErrSeatConflict) での判定を可能にする
func (e *SeatsAlreadyBookedError) Is(target error) bool {
	return target == ErrSeatConflict
}
