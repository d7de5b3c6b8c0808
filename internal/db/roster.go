package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Spok95/tennis-booking-bot/internal/ctxutil"
	"github.com/Spok95/tennis-booking-bot/internal/models"
)

// WeekRoster — слоты окна [from, to) с активными записями (по строке на запись,
// пустые слоты — одной строкой без записи).
func (s *Store) WeekRoster(ctx context.Context, from, to time.Time) ([]models.RosterRow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q, args, err := psql.
		Select("s.id", "s.starts_at", "s.ends_at", "v.free_left", "b.id", "u.name", "b.kind").
		From("tennis.sessions s").
		Join("tennis.v_session_load v USING (id)").
		LeftJoin("tennis.bookings b ON b.session_id = s.id AND b.status = 'booked'").
		LeftJoin("tennis.users u ON u.id = b.user_id").
		Where(sq.GtOrEq{"s.starts_at": from}).
		Where(sq.Lt{"s.starts_at": to}).
		OrderBy("s.starts_at", "b.created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("week roster: build: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("week roster: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.RosterRow
	for rows.Next() {
		var (
			r         models.RosterRow
			bookingID sql.NullInt64
			name      sql.NullString
			kind      sql.NullString
		)
		if err := rows.Scan(&r.SessionID, &r.StartsAt, &r.EndsAt, &r.FreeLeft, &bookingID, &name, &kind); err != nil {
			return nil, fmt.Errorf("week roster: scan: %w", err)
		}
		if bookingID.Valid {
			id := bookingID.Int64
			r.BookingID = &id
		}
		if name.Valid {
			n := name.String
			r.UserName = &n
		}
		if kind.Valid {
			k := models.BookingKind(kind.String)
			r.BookingKind = &k
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
