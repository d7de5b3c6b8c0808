package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Spok95/tennis-booking-bot/internal/ctxutil"
	"github.com/Spok95/tennis-booking-bot/internal/models"
)

// BookSession вызывает tennis.book_session в транзакции и возвращает её текстовый ответ.
func (s *Store) BookSession(ctx context.Context, userID, sessionID int64, kind models.BookingKind) (string, error) {
	return s.callProcedure(ctx, `SELECT tennis.book_session($1, $2, $3)`, userID, sessionID, string(kind))
}

// CancelBooking вызывает tennis.cancel_booking в транзакции.
func (s *Store) CancelBooking(ctx context.Context, bookingID int64) (string, error) {
	return s.callProcedure(ctx, `SELECT tennis.cancel_booking($1)`, bookingID)
}

func (s *Store) callProcedure(ctx context.Context, query string, args ...any) (string, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return "", fmt.Errorf("call procedure: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var msg string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&msg); err != nil {
		return "", fmt.Errorf("call procedure: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("call procedure: commit: %w", err)
	}
	return msg, nil
}

// FindActiveBooking — активная (status='booked') запись пользователя на слот.
func (s *Store) FindActiveBooking(ctx context.Context, userID, sessionID int64) (int64, bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM tennis.bookings
		WHERE user_id = $1 AND session_id = $2 AND status = 'booked'
	`, userID, sessionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find active booking: %w", err)
	}
	return id, true, nil
}

// ListUpcoming — будущие активные записи пользователя, по времени начала.
func (s *Store) ListUpcoming(ctx context.Context, userID int64, now time.Time) ([]models.UserBooking, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q, args, err := psql.
		Select("b.id", "s.starts_at", "b.kind").
		From("tennis.bookings b").
		Join("tennis.sessions s ON s.id = b.session_id").
		Where(sq.Eq{"b.user_id": userID, "b.status": "booked"}).
		Where(sq.Gt{"s.starts_at": now}).
		OrderBy("s.starts_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list upcoming: build: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list upcoming: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.UserBooking
	for rows.Next() {
		var (
			b    models.UserBooking
			kind string
		)
		if err := rows.Scan(&b.ID, &b.StartsAt, &kind); err != nil {
			return nil, fmt.Errorf("list upcoming: scan: %w", err)
		}
		b.Kind = models.BookingKind(kind)
		out = append(out, b)
	}
	return out, rows.Err()
}
