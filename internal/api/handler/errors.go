package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-seat-booking/internal/domain/show"
)

// toHTTPError はドメインエラーをHTTPステータスに写像する
// ストア固有のエラーはサービス層で変換済みなのでここには届かない
func toHTTPError(err error) error {
	var unavailable *seatlock.SeatsUnavailableError
	var alreadyBooked *booking.SeatsAlreadyBookedError

	switch {
	case errors.As(err, &unavailable), errors.As(err, &alreadyBooked):
		// 409 に座席の全件を含める（error_handler が Seats を抽出する）
		return echo.NewHTTPError(http.StatusConflict, err.Error()).SetInternal(err)
	case errors.Is(err, application.ErrSeatsBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, show.ErrShowNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrBookingNotFound), errors.Is(err, seatlock.ErrLockNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, show.ErrShowServiceUnavailable):
		// ショーが存在しないのではなく確認できなかった場合
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case isValidationError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "内部サーバーエラー").SetInternal(err)
	}
}

func isValidationError(err error) bool {
	validationErrs := []error{
		seatlock.ErrShowIDRequired,
		seatlock.ErrUserIDRequired,
		seatlock.ErrSeatIDsRequired,
		booking.ErrShowIDRequired,
		booking.ErrUserIDRequired,
		booking.ErrSeatIDsRequired,
		booking.ErrDuplicateSeatID,
		booking.ErrInvalidAmount,
	}
	for _, target := range validationErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
