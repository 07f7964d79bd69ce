package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-seat-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

type seatLockRow struct {
	ID        string    `db:"id"`
	ShowID    string    `db:"show_id"`
	SeatID    string    `db:"seat_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (r *seatLockRow) toEntity() *seatlock.SeatLock {
	return &seatlock.SeatLock{
		ID: r.ID, ShowID: r.ShowID, SeatID: r.SeatID, UserID: r.UserID,
		CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt,
	}
}

type SeatLockRepository struct{ db *sqlx.DB }

func NewSeatLockRepository(db *sqlx.DB) *SeatLockRepository {
	return &SeatLockRepository{db: db}
}

func (r *SeatLockRepository) CreateBulk(ctx context.Context, tx transaction.Tx, locks []*seatlock.SeatLock) error {
	sqlxTx := UnwrapTx(tx)
	query := `INSERT INTO seat_locks (show_id, seat_id, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for _, l := range locks {
		if err := sqlxTx.QueryRowContext(ctx, query, l.ShowID, l.SeatID, l.UserID, l.CreatedAt, l.ExpiresAt).Scan(&l.ID); err != nil {
			// (show_id, seat_id) の一意制約違反は競合として呼び出し側に返す
			if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
				return seatlock.ErrLockConflict
			}
			return fmt.Errorf("座席ロック作成に失敗: %w", err)
		}
	}
	return nil
}

func (r *SeatLockRepository) GetActiveByShowID(ctx context.Context, showID string, now time.Time) ([]*seatlock.SeatLock, error) {
	var rows []seatLockRow
	query := `SELECT id, show_id, seat_id, user_id, created_at, expires_at FROM seat_locks WHERE show_id = $1 AND expires_at > $2`
	if err := r.db.SelectContext(ctx, &rows, query, showID, now); err != nil {
		return nil, fmt.Errorf("座席ロック取得に失敗: %w", err)
	}
	locks := make([]*seatlock.SeatLock, len(rows))
	for i, row := range rows {
		locks[i] = row.toEntity()
	}
	return locks, nil
}

func (r *SeatLockRepository) GetByUserAndShow(ctx context.Context, userID, showID string) ([]*seatlock.SeatLock, error) {
	var rows []seatLockRow
	query := `SELECT id, show_id, seat_id, user_id, created_at, expires_at FROM seat_locks WHERE user_id = $1 AND show_id = $2`
	if err := r.db.SelectContext(ctx, &rows, query, userID, showID); err != nil {
		return nil, fmt.Errorf("座席ロック取得に失敗: %w", err)
	}
	locks := make([]*seatlock.SeatLock, len(rows))
	for i, row := range rows {
		locks[i] = row.toEntity()
	}
	return locks, nil
}

func (r *SeatLockRepository) DeleteByUserAndShow(ctx context.Context, tx transaction.Tx, userID, showID string) error {
	sqlxTx := UnwrapTx(tx)
	if _, err := sqlxTx.ExecContext(ctx, `DELETE FROM seat_locks WHERE user_id = $1 AND show_id = $2`, userID, showID); err != nil {
		return fmt.Errorf("座席ロック削除に失敗: %w", err)
	}
	return nil
}

func (r *SeatLockRepository) DeleteExpired(ctx context.Context, tx transaction.Tx, showID string, before time.Time) (int, error) {
	sqlxTx := UnwrapTx(tx)
	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM seat_locks WHERE show_id = $1 AND expires_at <= $2`, showID, before)
	if err != nil {
		return 0, fmt.Errorf("期限切れロック削除に失敗: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

func (r *SeatLockRepository) DeleteExpiredBefore(ctx context.Context, before time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM seat_locks WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("期限切れロック削除に失敗: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

var _ seatlock.Repository = (*SeatLockRepository)(nil)
