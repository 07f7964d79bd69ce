package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type ConfirmBookingRequest struct {
	ShowID  string   `json:"show_id" validate:"required" example:"show-123"`
	SeatIDs []string `json:"seat_ids" validate:"required,min=1" example:"A1,A2"`

	// 通知用の任意項目
	UserName  string `json:"user_name,omitempty" example:"山田太郎"`
	UserPhone string `json:"user_phone,omitempty" example:"+819012345678"`
}

type BookingResponse struct {
	ID          string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID      string    `json:"user_id" example:"user-123"`
	ShowID      string    `json:"show_id" example:"show-123"`
	TheatreID   string    `json:"theatre_id" example:"theatre-1"`
	MovieID     string    `json:"movie_id" example:"movie-1"`
	SeatIDs     []string  `json:"seat_ids" example:"A1,A2"`
	Amount      float64   `json:"amount" example:"3000"`
	Status      string    `json:"status" example:"confirmed"`
	ConfirmedAt time.Time `json:"confirmed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, UserID: b.UserID, ShowID: b.ShowID,
		TheatreID: b.TheatreID, MovieID: b.MovieID,
		SeatIDs: b.SeatIDs, Amount: b.Amount, Status: string(b.Status),
		ConfirmedAt: b.ConfirmedAt, CreatedAt: b.CreatedAt,
	}
}

// Confirm godoc
// @Summary 予約を確定
// @Description 座席を確定予約に変換し、保持中のロックを解放します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body ConfirmBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string "ショーが存在しない"
// @Failure 409 {object} map[string]string "座席が既に予約済み（競合座席を全件列挙）"
// @Failure 503 {object} map[string]string "ショーサービスに到達できない"
// @Router /bookings [post]
func (h *BookingHandler) Confirm(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req ConfirmBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.ConfirmBooking(c.Request().Context(), application.ConfirmBookingInput{
		UserID:    userID,
		ShowID:    req.ShowID,
		SeatIDs:   req.SeatIDs,
		UserName:  req.UserName,
		UserPhone: req.UserPhone,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetUserBookings godoc
// @Summary ユーザーの予約一覧を取得
// @Description ログインユーザーの予約一覧を新しい順で取得します
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Failure 401 {object} map[string]string
// @Router /bookings [get]
func (h *BookingHandler) GetUserBookings(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	bookings, err := h.service.GetUserBookings(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}
