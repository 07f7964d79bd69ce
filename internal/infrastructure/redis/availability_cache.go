package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCacheInterface は可用性キャッシュの操作（テストで差し替え可能にする）
type AvailabilityCacheInterface interface {
	GetUnavailableSeats(ctx context.Context, showID string) ([]string, error)
	SetUnavailableSeats(ctx context.Context, showID string, seatIDs []string, ttl time.Duration) error
	Invalidate(ctx context.Context, showID string) error
}

// AvailabilityCache はショーごとの確保不能座席一覧のキャッシュを管理する
// 表示用の可用性照会を軽くするためのもので、競合判定の正とはしない
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

var _ AvailabilityCacheInterface = (*AvailabilityCache)(nil)

// GetUnavailableSeats はショーの確保不能座席一覧をキャッシュから取得する
func (c *AvailabilityCache) GetUnavailableSeats(ctx context.Context, showID string) ([]string, error) {
	key := c.unavailableSeatsKey(showID)
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var seatIDs []string
	if err := json.Unmarshal([]byte(val), &seatIDs); err != nil {
		return nil, fmt.Errorf("キャッシュのデコードに失敗: %w", err)
	}
	return seatIDs, nil
}

// SetUnavailableSeats はショーの確保不能座席一覧をキャッシュに保存する
func (c *AvailabilityCache) SetUnavailableSeats(ctx context.Context, showID string, seatIDs []string, ttl time.Duration) error {
	key := c.unavailableSeatsKey(showID)
	data, err := json.Marshal(seatIDs)
	if err != nil {
		return fmt.Errorf("キャッシュのエンコードに失敗: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はショーのキャッシュを無効化する
// ロック取得・解放・予約確定のたびに呼ばれる
func (c *AvailabilityCache) Invalidate(ctx context.Context, showID string) error {
	key := c.unavailableSeatsKey(showID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) unavailableSeatsKey(showID string) string {
	return fmt.Sprintf("seats:unavailable:%s", showID)
}
