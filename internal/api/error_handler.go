package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
// Seats には競合エラー時に確保できなかった座席IDの全件が入る
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    int      `json:"code,omitempty"`
	Seats   []string `json:"seats,omitempty"`
	Details string   `json:"details,omitempty"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    = http.StatusInternalServerError
		message = "内部サーバーエラー"
	)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	// 競合エラーは座席IDの全件をレスポンスに含める
	var seats []string
	var unavailable *seatlock.SeatsUnavailableError
	var alreadyBooked *booking.SeatsAlreadyBookedError
	if errors.As(err, &unavailable) {
		seats = unavailable.SeatIDs
	} else if errors.As(err, &alreadyBooked) {
		seats = alreadyBooked.SeatIDs
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	// JSONレスポンスを返す
	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
		Seats: seats,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
