package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Spok95/tennis-booking-bot/internal/ctxutil"
	"github.com/Spok95/tennis-booking-bot/internal/models"
)

// DueReminders — активные записи на слоты, стартующие в (now, now+within], по которым ещё не напоминали.
func (s *Store) DueReminders(ctx context.Context, now time.Time, within time.Duration, limit int) ([]models.DueReminder, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, u.tg_id, s.id, s.starts_at, s.ends_at, b.kind
		FROM tennis.bookings b
		JOIN tennis.sessions s ON s.id = b.session_id
		JOIN tennis.users u ON u.id = b.user_id
		LEFT JOIN tennis.booking_reminders r ON r.booking_id = b.id
		WHERE b.status = 'booked'
		  AND r.booking_id IS NULL
		  AND u.tg_id IS NOT NULL
		  AND s.starts_at > $1 AND s.starts_at <= $2
		ORDER BY s.starts_at
		LIMIT $3
	`, now, now.Add(within), limit)
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.DueReminder
	for rows.Next() {
		var (
			r    models.DueReminder
			kind string
		)
		if err := rows.Scan(&r.BookingID, &r.TgID, &r.SessionID, &r.StartsAt, &r.EndsAt, &kind); err != nil {
			return nil, fmt.Errorf("due reminders: scan: %w", err)
		}
		r.Kind = models.BookingKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkReminded — пометить, что напоминания по записям отправлены (идемпотентно).
func (s *Store) MarkReminded(ctx context.Context, bookingIDs []int64) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tennis.booking_reminders (booking_id)
		SELECT unnest($1::bigint[])
		ON CONFLICT (booking_id) DO NOTHING
	`, pq.Array(bookingIDs))
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}
