package seatlock

import "time"

// DefaultTTL はロックのデフォルト有効期間
// UIでの座席選択〜確定操作に十分な長さで、放置されたクライアントが
// 座席を占有し続けない値として10分を採用している
const DefaultTTL = 10 * time.Minute

// SeatLock は1つの座席に対する一時的な確保（ホールド）を表す
// ExpiresAt は作成時に CreatedAt + TTL で固定され、以後変更されない
type SeatLock struct {
	ID        string
	ShowID    string
	SeatID    string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSeatLocks は座席IDごとにロックを作成する
// 全ロックが同一の CreatedAt / ExpiresAt を共有する
// リクエスト内の重複座席IDは1つに畳み込まれ、順序は維持される
func NewSeatLocks(showID, userID string, seatIDs []string, ttl time.Duration) ([]*SeatLock, error) {
	if showID == "" {
		return nil, ErrShowIDRequired
	}
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	unique := DedupeSeatIDs(seatIDs)
	if len(unique) == 0 {
		return nil, ErrSeatIDsRequired
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	locks := make([]*SeatLock, len(unique))
	for i, seatID := range unique {
		locks[i] = &SeatLock{
			ShowID:    showID,
			SeatID:    seatID,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		}
	}
	return locks, nil
}

// IsExpired はロックが指定時刻で期限切れかを返す
func (l *SeatLock) IsExpired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// DedupeSeatIDs は座席IDの重複を取り除く（先着順を維持）
func DedupeSeatIDs(seatIDs []string) []string {
	seen := make(map[string]struct{}, len(seatIDs))
	result := make([]string, 0, len(seatIDs))
	for _, id := range seatIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
