package db

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Spok95/tennis-booking-bot/internal/ctxutil"
)

// psql — squirrel с плейсхолдерами $1, $2…
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store — тонкие параметризованные запросы к схеме tennis.*.
// Вся бизнес-логика записи/отмены живёт в процедурах БД.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

// ProcedureMessage достаёт текст исключения, брошенного процедурой (RAISE EXCEPTION),
// чтобы показать его пользователю как есть. Для прочих ошибок — false.
func ProcedureMessage(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "P0001" {
		return pgErr.Message, true
	}
	return "", false
}
