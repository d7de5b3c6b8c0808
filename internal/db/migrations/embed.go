// Package migrations — эталонная схема tennis.* для локального запуска и интеграционных тестов.
// В проде схемой владеет база; бот накатывает её только при AUTO_MIGRATE=true.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
