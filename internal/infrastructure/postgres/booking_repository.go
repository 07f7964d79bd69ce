package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

type bookingRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	ShowID      string    `db:"show_id"`
	TheatreID   string    `db:"theatre_id"`
	MovieID     string    `db:"movie_id"`
	Amount      float64   `db:"amount"`
	Status      string    `db:"status"`
	ConfirmedAt time.Time `db:"confirmed_at"`
	CreatedAt   time.Time `db:"created_at"`
}

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	query := `INSERT INTO bookings (user_id, show_id, theatre_id, movie_id, amount, status, confirmed_at, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query, b.UserID, b.ShowID, b.TheatreID, b.MovieID, b.Amount, string(b.Status), b.ConfirmedAt, b.CreatedAt).Scan(&b.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	for i, seatID := range b.SeatIDs {
		if _, err := sqlxTx.ExecContext(ctx,
			`INSERT INTO booking_seats (booking_id, show_id, seat_id, position) VALUES ($1, $2, $3, $4)`,
			b.ID, b.ShowID, seatID, i); err != nil {
			// (show_id, seat_id) の一意制約違反は二重販売の競合
			if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
				return booking.ErrSeatConflict
			}
			return fmt.Errorf("予約座席関連付けに失敗: %w", err)
		}
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT id, user_id, show_id, theatre_id, movie_id, amount, status, confirmed_at, created_at FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	seatIDs, err := r.getSeatIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.toEntity(&row, seatIDs), nil
}

func (r *BookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT id, user_id, show_id, theatre_id, movie_id, amount, status, confirmed_at, created_at FROM bookings WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		seatIDs, err := r.getSeatIDs(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		result[i] = r.toEntity(&row, seatIDs)
	}
	return result, nil
}

func (r *BookingRepository) GetBookedSeatsByShowID(ctx context.Context, showID string) ([]string, error) {
	var seatIDs []string
	query := `SELECT DISTINCT bs.seat_id FROM booking_seats bs JOIN bookings b ON b.id = bs.booking_id WHERE bs.show_id = $1 AND b.status = $2`
	if err := r.db.SelectContext(ctx, &seatIDs, query, showID, string(booking.StatusConfirmed)); err != nil {
		return nil, fmt.Errorf("予約済み座席取得に失敗: %w", err)
	}
	return seatIDs, nil
}

func (r *BookingRepository) FindBookedSeats(ctx context.Context, showID string, seatIDs []string) ([]string, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	var conflicts []string
	// 競合する座席全件を1クエリで返す（座席ごとの逐次照会はしない）
	query := `SELECT DISTINCT bs.seat_id FROM booking_seats bs JOIN bookings b ON b.id = bs.booking_id WHERE bs.show_id = $1 AND b.status = $2 AND bs.seat_id = ANY($3)`
	if err := r.db.SelectContext(ctx, &conflicts, query, showID, string(booking.StatusConfirmed), pq.Array(seatIDs)); err != nil {
		return nil, fmt.Errorf("予約競合確認に失敗: %w", err)
	}
	return conflicts, nil
}

func (r *BookingRepository) getSeatIDs(ctx context.Context, bookingID string) ([]string, error) {
	var seatIDs []string
	if err := r.db.SelectContext(ctx, &seatIDs, `SELECT seat_id FROM booking_seats WHERE booking_id = $1 ORDER BY position`, bookingID); err != nil {
		return nil, fmt.Errorf("座席ID取得に失敗: %w", err)
	}
	return seatIDs, nil
}

func (r *BookingRepository) toEntity(row *bookingRow, seatIDs []string) *booking.Booking {
	return &booking.Booking{
		ID: row.ID, UserID: row.UserID, ShowID: row.ShowID,
		TheatreID: row.TheatreID, MovieID: row.MovieID,
		SeatIDs: seatIDs, Amount: row.Amount,
		Status: booking.Status(row.Status),
		ConfirmedAt: row.ConfirmedAt, CreatedAt: row.CreatedAt,
	}
}

var _ booking.Repository = (*BookingRepository)(nil)
