package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Spok95/tennis-booking-bot/internal/app"
	"github.com/Spok95/tennis-booking-bot/internal/bot/handlers"
	"github.com/Spok95/tennis-booking-bot/internal/bot/view"
	"github.com/Spok95/tennis-booking-bot/internal/clickguard"
	"github.com/Spok95/tennis-booking-bot/internal/config"
	"github.com/Spok95/tennis-booking-bot/internal/db"
	"github.com/Spok95/tennis-booking-bot/internal/export"
	"github.com/Spok95/tennis-booking-bot/internal/jobs"
	"github.com/Spok95/tennis-booking-bot/internal/logging"
	"github.com/Spok95/tennis-booking-bot/internal/observability"
	"github.com/Spok95/tennis-booking-bot/internal/texts"
	"github.com/Spok95/tennis-booking-bot/internal/tg"
)

var version = "dev"

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL, cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, database); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
		logger.Info("migrations applied")
	}
	store := db.NewStore(database)

	catalog, err := texts.Load(cfg.Lang)
	if err != nil {
		logger.Warn("texts: falling back to default language", zap.String("lang", cfg.Lang), zap.Error(err))
		catalog = texts.MustLoad(texts.DefaultLang)
	}
	formatter := view.New(catalog, cfg.Location)

	// Инициализация Telegram бота
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("telegram init failed", zap.Error(err))
	}
	bot.Debug = cfg.TGDebug
	logger.Info("bot started", zap.String("username", bot.Self.UserName), zap.String("version", version))
	sender := tg.NewSender(bot, cfg.TGRate)

	var (
		guard clickguard.Guard = clickguard.NewMemory(cfg.ClickGuardTTL)
		cache app.Pinger
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		guard = clickguard.NewRedis(rdb, cfg.ClickGuardTTL)
		cache = app.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	h := handlers.New(handlers.Deps{
		Store:             store,
		TG:                sender,
		View:              formatter,
		Roster:            export.Roster{T: catalog, Loc: cfg.Location},
		Log:               logger,
		IsAdmin:           cfg.IsAdmin,
		CancelNoticeHours: cfg.CancelNoticeHours,
	})
	router := app.NewRouter(h, guard, logger)

	app.StartHTTP(ctx, cfg.HTTPAddr, app.NewHTTPHandler(store, cache), logger)

	runner := jobs.New(ctx, logger)
	if cfg.ReminderBefore > 0 {
		runner.Every(time.Minute, "booking_reminders", (&jobs.Reminders{
			Store:  store,
			TG:     sender,
			View:   formatter,
			Before: cfg.ReminderBefore,
			Log:    logger,
		}).Run)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	router.Run(ctx, updates)

	logger.Info("shutting down")
	runner.Wait()
}
