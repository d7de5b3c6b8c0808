//go:build testutil
// +build testutil

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Spok95/tennis-booking-bot/internal/config"
	"github.com/Spok95/tennis-booking-bot/internal/db"
)

type DBHandle struct {
	DB     *sql.DB
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start поднимает Postgres в контейнере и накатывает миграции tennis.*.
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("tennis"),
		postgres.WithUsername("tennis"),
		postgres.WithPassword("tennis"),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	fail := func(err error) (*DBHandle, error) {
		_ = pg.Terminate(context.Background())
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}

	database, err := waitReady(ctx, uri)
	if err != nil {
		return fail(err)
	}
	if err := db.Migrate(ctx, database); err != nil {
		_ = database.Close()
		return fail(err)
	}

	return &DBHandle{
		DB:     database,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

// контейнер отвечает на порт раньше, чем принимает соединения
func waitReady(ctx context.Context, uri string) (*sql.DB, error) {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		database, err := db.Open(ctx, uri, config.DBPool{MaxOpenConns: 20})
		if err == nil {
			return database, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return nil, errors.New("db not ready")
}

// SeedSession — слот с заданной вместимостью; возвращает id.
func SeedSession(ctx context.Context, database *sql.DB, startsAt time.Time, dur time.Duration, capacity int) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO tennis.sessions (starts_at, ends_at, capacity)
		VALUES ($1, $2, $3)
		RETURNING id`, startsAt, startsAt.Add(dur), capacity).Scan(&id)
	return id, err
}

// SeedPass — абонемент пользователю на n занятий.
func SeedPass(ctx context.Context, database *sql.DB, userID int64, sessions int) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO tennis.passes (user_id, sessions_left)
		VALUES ($1, $2)
		RETURNING id`, userID, sessions).Scan(&id)
	return id, err
}
