package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BotToken    string
	DatabaseURL string
	AdminIDs    []int64
	Location    *time.Location
	Lang        string
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	TGDebug     bool
	TGRate      float64 // исходящих сообщений в секунду

	DB    DBPool
	Redis Redis

	AutoMigrate       bool
	ReminderBefore    time.Duration // 0 — напоминания выключены
	CancelNoticeHours int
	ClickGuardTTL     time.Duration
}

type DBPool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

var ErrMissingEnv = errors.New("required env is empty")

func Load() (*Config, error) {
	tz := getenv("TIMEZONE", getenv("TZ", "Europe/Moscow"))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", tz, err)
	}

	adminIDs, err := parseIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}

	botToken, err := requireEnv("BOT_TOKEN")
	if err != nil {
		return nil, err
	}
	dsn, err := requireEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken:    botToken,
		DatabaseURL: dsn,
		AdminIDs:    adminIDs,
		Location:    loc,
		Lang:        strings.ToLower(getenv("LANG_CODE", "ru")),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}

	p := parser{}
	cfg.TGDebug = p.bool("TG_DEBUG", false)
	cfg.TGRate = p.float("TG_RATE", 25)
	cfg.Redis.DB = p.int("REDIS_DB", 0)
	cfg.DB.MaxOpenConns = p.int("DB_MAX_OPEN_CONNS", 10)
	cfg.DB.MaxIdleConns = p.int("DB_MAX_IDLE_CONNS", 5)
	cfg.DB.ConnMaxLifetime = p.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.AutoMigrate = p.bool("AUTO_MIGRATE", false)
	cfg.ReminderBefore = p.duration("REMINDER_BEFORE", 24*time.Hour)
	cfg.CancelNoticeHours = p.int("CANCEL_NOTICE_HOURS", 12)
	cfg.ClickGuardTTL = p.duration("CLICK_GUARD_TTL", 2*time.Second)
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// IsAdmin — chatID входит в ADMIN_IDS.
func (c *Config) IsAdmin(chatID int64) bool {
	for _, id := range c.AdminIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func requireEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("%s: %w", k, ErrMissingEnv)
	}
	return v, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// parser запоминает первую ошибку разбора, чтобы не проверять каждую переменную отдельно.
type parser struct {
	err error
}

func (p *parser) int(k string, def int) int {
	v := os.Getenv(k)
	if v == "" || p.err != nil {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.err = fmt.Errorf("%s: %w", k, err)
		return def
	}
	return n
}

func (p *parser) float(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" || p.err != nil {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", k, err)
		return def
	}
	return f
}

func (p *parser) bool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" || p.err != nil {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.err = fmt.Errorf("%s: %w", k, err)
		return def
	}
	return b
}

func (p *parser) duration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" || p.err != nil {
		return def
	}
	if v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", k, err)
		return def
	}
	return d
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
