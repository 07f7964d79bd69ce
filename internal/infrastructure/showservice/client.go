package showservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sanosuguru/go-seat-booking/internal/domain/show"
)

// Client は show-service のHTTPクライアント
// ショーの存在確認とメタデータ（劇場・作品・価格）の取得に使う
// 唯一の外部ネットワーク呼び出しであり、必ずタイムアウト付きで実行される
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient は新しいクライアントを作成する
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type showResponse struct {
	ID        string    `json:"id"`
	TheatreID string    `json:"theatre_id"`
	MovieID   string    `json:"movie_id"`
	Price     float64   `json:"price"`
	StartAt   time.Time `json:"start_at"`
}

// GetByID はショーをIDで取得する
// 404 は show.ErrShowNotFound、それ以外の失敗（接続エラー・タイムアウト・5xx）は
// show.ErrShowServiceUnavailable として区別して返す
func (c *Client) GetByID(ctx context.Context, id string) (*show.Show, error) {
	url := fmt.Sprintf("%s/api/shows/%s", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", show.ErrShowServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, show.ErrShowNotFound
	default:
		return nil, fmt.Errorf("%w: status=%d", show.ErrShowServiceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", show.ErrShowServiceUnavailable, err)
	}

	var sr showResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: レスポンスのデコードに失敗: %v", show.ErrShowServiceUnavailable, err)
	}
	if sr.ID == "" {
		return nil, show.ErrShowNotFound
	}

	return &show.Show{
		ID:        sr.ID,
		TheatreID: sr.TheatreID,
		MovieID:   sr.MovieID,
		Price:     sr.Price,
		StartAt:   sr.StartAt,
	}, nil
}

var _ show.Gateway = (*Client)(nil)
