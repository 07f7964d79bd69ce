package show

import (
	"context"
	"time"
)

// Show はショー（上映回）のマスターデータを表す
// マスターデータの管理は show-service 側の責務で、ここでは参照のみ
type Show struct {
	ID        string
	TheatreID string
	MovieID   string
	Price     float64
	StartAt   time.Time
}

// Gateway はショー情報を外部サービスから取得するインターフェース
// ロック取得・予約確定の両方が存在確認に利用する
// 呼び出しはタイムアウト付きで行われ、失敗は ErrShowNotFound と
// ErrShowServiceUnavailable に区別される
type Gateway interface {
	GetByID(ctx context.Context, id string) (*Show, error)
}
