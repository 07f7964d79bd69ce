package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
)

type LockHandler struct {
	service LockServiceInterface
}

func NewLockHandler(s LockServiceInterface) *LockHandler {
	return &LockHandler{service: s}
}

type AcquireLocksRequest struct {
	SeatIDs []string `json:"seat_ids" validate:"required,min=1" example:"A1,A2"`
}

type SeatLockResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ShowID    string    `json:"show_id" example:"show-123"`
	SeatID    string    `json:"seat_id" example:"A1"`
	UserID    string    `json:"user_id" example:"user-123"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toSeatLockResponse(l *seatlock.SeatLock) SeatLockResponse {
	return SeatLockResponse{
		ID: l.ID, ShowID: l.ShowID, SeatID: l.SeatID, UserID: l.UserID,
		CreatedAt: l.CreatedAt, ExpiresAt: l.ExpiresAt,
	}
}

// Acquire godoc
// @Summary 座席ロックを取得
// @Description 指定座席を一括で仮押さえします（10分間有効、全か無か）
// @Tags locks
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param show_id path string true "ショーID"
// @Param request body AcquireLocksRequest true "座席指定"
// @Success 201 {array} SeatLockResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string "ショーが存在しない"
// @Failure 409 {object} map[string]string "座席が確保できない（競合座席を全件列挙）"
// @Failure 503 {object} map[string]string "ショーサービスに到達できない"
// @Router /shows/{show_id}/locks [post]
func (h *LockHandler) Acquire(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req AcquireLocksRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	locks, err := h.service.AcquireLocks(c.Request().Context(), application.AcquireLocksInput{
		ShowID:  c.Param("show_id"),
		UserID:  userID,
		SeatIDs: req.SeatIDs,
	})
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]SeatLockResponse, len(locks))
	for i, l := range locks {
		resp[i] = toSeatLockResponse(l)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Release godoc
// @Summary 座席ロックを解放
// @Description ユーザーがこのショーに保持する全ロックを解放します
// @Tags locks
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param show_id path string true "ショーID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Router /shows/{show_id}/locks [delete]
func (h *LockHandler) Release(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	if err := h.service.ReleaseLocks(c.Request().Context(), userID, c.Param("show_id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
