package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/Spok95/tennis-booking-bot/internal/ctxutil"
)

// EnsureUser возвращает id пользователя по tg_id, заводя запись при первом обращении.
// Телефон неизвестен, поэтому в phone кладём "tg:<tg_id>".
func (s *Store) EnsureUser(ctx context.Context, tgID int64, name string) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	id, err := s.userIDByTg(ctx, tgID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("ensure user %d: %w", tgID, err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO tennis.users (phone, tg_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING id
	`, "tg:"+strconv.FormatInt(tgID, 10), tgID, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// параллельный апдейт успел вставить первым
		id, err = s.userIDByTg(ctx, tgID)
	}
	if err != nil {
		return 0, fmt.Errorf("ensure user %d: %w", tgID, err)
	}
	return id, nil
}

func (s *Store) userIDByTg(ctx context.Context, tgID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM tennis.users WHERE tg_id = $1`, tgID).Scan(&id)
	return id, err
}
