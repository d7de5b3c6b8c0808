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

// ListWeek — слоты с остатком мест в окне [from, to), по времени начала.
func (s *Store) ListWeek(ctx context.Context, from, to time.Time) ([]models.SessionLoad, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q, args, err := psql.
		Select("s.id", "s.starts_at", "s.ends_at", "v.free_left").
		From("tennis.sessions s").
		Join("tennis.v_session_load v USING (id)").
		Where(sq.GtOrEq{"s.starts_at": from}).
		Where(sq.Lt{"s.starts_at": to}).
		OrderBy("s.starts_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list week: build: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list week: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.SessionLoad
	for rows.Next() {
		var sl models.SessionLoad
		if err := rows.Scan(&sl.ID, &sl.StartsAt, &sl.EndsAt, &sl.FreeLeft); err != nil {
			return nil, fmt.Errorf("list week: scan: %w", err)
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

// FindSessionByStart — слот, начинающийся ровно в startsAt (для кодов ses_…).
func (s *Store) FindSessionByStart(ctx context.Context, startsAt time.Time) (int64, bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM tennis.sessions WHERE starts_at = $1`, startsAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find session by start: %w", err)
	}
	return id, true, nil
}

// GetSessionView — карточка слота для пользователя; nil, если слота нет.
func (s *Store) GetSessionView(ctx context.Context, userID, sessionID int64) (*models.SessionView, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var v models.SessionView
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.starts_at, s.ends_at, v.free_left,
		       EXISTS (SELECT 1 FROM tennis.bookings b
		               WHERE b.session_id = s.id AND b.user_id = $1 AND b.status = 'booked') AS is_booked
		FROM tennis.sessions s
		JOIN tennis.v_session_load v USING (id)
		WHERE s.id = $2
	`, userID, sessionID).Scan(&v.ID, &v.StartsAt, &v.EndsAt, &v.FreeLeft, &v.IsBooked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session view %d: %w", sessionID, err)
	}
	return &v, nil
}
