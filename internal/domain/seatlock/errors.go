package seatlock

import (
	"errors"
	"fmt"
	"strings"
)

// SeatLock ドメインのエラー定義
var (
	ErrLockNotFound   = errors.New("座席ロックが見つかりません")
	ErrLockConflict   = errors.New("座席ロックが競合しました")
	ErrShowIDRequired = errors.New("ショーIDは必須です")
	ErrUserIDRequired = errors.New("ユーザーIDは必須です")
	ErrSeatIDsRequired = errors.New("座席IDは必須です")
)

// SeatsUnavailableError は確保できなかった座席の一覧を保持するエラー
// 競合したすべての座席を返すことで、呼び出し側は1席ずつ再試行せずに
// 選択をまとめて修正できる
type SeatsUnavailableError struct {
	SeatIDs []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("座席は既に確保されています: %s", strings.Join(e.SeatIDs, ", "))
}

// Is は errors.Is(err, ErrLockConflict) での判定を可能にする
func (e *SeatsUnavailableError) Is(target error) bool {
	return target == ErrLockConflict
}
