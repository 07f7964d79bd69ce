package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type AvailabilityHandler struct {
	service AvailabilityServiceInterface
}

func NewAvailabilityHandler(s AvailabilityServiceInterface) *AvailabilityHandler {
	return &AvailabilityHandler{service: s}
}

type UnavailableSeatsResponse struct {
	ShowID  string   `json:"show_id" example:"show-123"`
	SeatIDs []string `json:"seat_ids" example:"A1,A2"`
}

// GetUnavailableSeats godoc
// @Summary 確保できない座席一覧を取得
// @Description 予約済みおよびロック中の座席IDを昇順で返します
// @Tags availability
// @Produce json
// @Param show_id path string true "ショーID"
// @Success 200 {object} UnavailableSeatsResponse
// @Failure 400 {object} map[string]string
// @Router /shows/{show_id}/seats/unavailable [get]
func (h *AvailabilityHandler) GetUnavailableSeats(c echo.Context) error {
	showID := c.Param("show_id")
	seats, err := h.service.UnavailableSeats(c.Request().Context(), showID)
	if err != nil {
		return toHTTPError(err)
	}
	if seats == nil {
		seats = []string{}
	}
	return c.JSON(http.StatusOK, UnavailableSeatsResponse{ShowID: showID, SeatIDs: seats})
}

// GetSeatStatuses godoc
// @Summary 座席の占有状態を取得
// @Description 座席ごとに予約済み・ロック中の区別を返します
// @Tags availability
// @Produce json
// @Param show_id path string true "ショーID"
// @Success 200 {array} application.SeatStatus
// @Failure 400 {object} map[string]string
// @Router /shows/{show_id}/seats/status [get]
func (h *AvailabilityHandler) GetSeatStatuses(c echo.Context) error {
	statuses, err := h.service.SeatStatuses(c.Request().Context(), c.Param("show_id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, statuses)
}

// GetBookedSeats godoc
// @Summary 予約済み座席一覧を取得
// @Tags availability
// @Produce json
// @Param show_id path string true "ショーID"
// @Success 200 {object} UnavailableSeatsResponse
// @Failure 400 {object} map[string]string
// @Router /shows/{show_id}/seats/booked [get]
func (h *AvailabilityHandler) GetBookedSeats(c echo.Context) error {
	showID := c.Param("show_id")
	seats, err := h.service.BookedSeats(c.Request().Context(), showID)
	if err != nil {
		return toHTTPError(err)
	}
	if seats == nil {
		seats = []string{}
	}
	return c.JSON(http.StatusOK, UnavailableSeatsResponse{ShowID: showID, SeatIDs: seats})
}

// GetLockedSeats godoc
// @Summary ロック中座席一覧を取得
// @Tags availability
// @Produce json
// @Param show_id path string true "ショーID"
// @Success 200 {object} UnavailableSeatsResponse
// @Failure 400 {object} map[string]string
// @Router /shows/{show_id}/seats/locked [get]
func (h *AvailabilityHandler) GetLockedSeats(c echo.Context) error {
	showID := c.Param("show_id")
	seats, err := h.service.LockedSeats(c.Request().Context(), showID)
	if err != nil {
		return toHTTPError(err)
	}
	if seats == nil {
		seats = []string{}
	}
	return c.JSON(http.StatusOK, UnavailableSeatsResponse{ShowID: showID, SeatIDs: seats})
}
