package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/tennis-booking-bot/internal/bot/handlers"
	"github.com/Spok95/tennis-booking-bot/internal/bot/menu"
	"github.com/Spok95/tennis-booking-bot/internal/bot/view"
	"github.com/Spok95/tennis-booking-bot/internal/clickguard"
	"github.com/Spok95/tennis-booking-bot/internal/ctxutil"
	"github.com/Spok95/tennis-booking-bot/internal/logging"
	"github.com/Spok95/tennis-booking-bot/internal/metrics"
	"github.com/Spok95/tennis-booking-bot/internal/observability"
)

// Router разбирает апдейт и вызывает нужный обработчик.
// Апдейты одного чата обрабатываются строго по очереди, разных чатов — параллельно.
type Router struct {
	h       *handlers.Handlers
	limiter *ChatLimiter
	guard   clickguard.Guard
	log     *zap.Logger
	timeout time.Duration
}

func NewRouter(h *handlers.Handlers, guard clickguard.Guard, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		h:       h,
		limiter: NewChatLimiter(),
		guard:   guard,
		log:     log,
		timeout: ctxutil.DefaultHandlerTimeout,
	}
}

// Run читает апдейты до отмены ctx или закрытия канала и дожидается начатых обработок.
func (r *Router) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				// обработка не рвётся на полпути при остановке бота
				r.HandleUpdate(context.WithoutCancel(ctx), upd)
			}()
		}
	}
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil && upd.Message.Chat != nil:
		metrics.BotUpdates.WithLabelValues("message").Inc()
		r.serve(ctx, upd.Message.Chat.ID, func(ctx context.Context) (string, error) {
			return r.HandleMessage(ctx, upd.Message)
		})
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		metrics.BotUpdates.WithLabelValues("callback").Inc()
		chatID := upd.CallbackQuery.From.ID
		if m := upd.CallbackQuery.Message; m != nil && m.Chat != nil {
			chatID = m.Chat.ID
		}
		r.serve(ctx, chatID, func(ctx context.Context) (string, error) {
			return r.HandleCallback(ctx, upd.CallbackQuery)
		})
	default:
		metrics.BotUpdates.WithLabelValues("other").Inc()
	}
}

// serve — общая обвязка: request id, очередь чата, таймаут, recover, метрики и Sentry.
func (r *Router) serve(ctx context.Context, chatID int64, fn func(context.Context) (string, error)) {
	ctx = ctxutil.WithRequestID(ctx, uuid.NewString())
	ctx = ctxutil.WithChatID(ctx, chatID)

	unlock := r.limiter.lock(chatID)
	defer unlock()

	ctx, cancel := ctxutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	op := "unknown"
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic: %v", rec)
			logging.FromContext(ctx, r.log).Error("handler panic", zap.Error(err), zap.ByteString("stack", debug.Stack()))
			metrics.HandlerErrors.Inc()
			observability.CaptureErrCtx(ctx, err)
		}
		metrics.ObserveHandler(op, started)
	}()

	var err error
	op, err = fn(ctx)
	ctx = ctxutil.WithOp(ctx, op)
	if err != nil {
		logging.FromContext(ctx, r.log).Error("handler failed", zap.Error(err))
		metrics.HandlerErrors.Inc()
		observability.CaptureErrCtx(ctx, err)
		return
	}
	logging.FromContext(ctx, r.log).Debug("handled", zap.Duration("took", time.Since(started)))
}

// HandleMessage возвращает имя операции для метрик и ошибку обработчика.
// Имя операции попадает в ctx до вызова обработчика.
func (r *Router) HandleMessage(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	op, code := r.messageOp(msg)
	ctx = ctxutil.WithOp(ctx, op)
	chatID := msg.Chat.ID

	switch op {
	case "empty":
		return op, nil
	case "open_code":
		return op, r.h.OpenByCode(ctx, chatID, msg.From, code)
	case "start":
		return op, r.h.Start(ctx, chatID)
	case "rules":
		return op, r.h.Rules(ctx, chatID)
	case "week":
		return op, r.h.Week(ctx, chatID)
	case "me":
		return op, r.h.Me(ctx, chatID, msg.From)
	case "ping":
		return op, r.h.Ping(ctx, chatID)
	case "export":
		return op, r.h.Export(ctx, chatID)
	default:
		return op, r.h.Unknown(ctx, chatID)
	}
}

// messageOp — операция для текста сообщения; для ses_… ещё и сам код слота.
func (r *Router) messageOp(msg *tgbotapi.Message) (op, code string) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return "empty", ""
	}

	// ses_… приходит и простым текстом, и как /ses_… (так Telegram делает ссылку кликабельной)
	if c := strings.TrimPrefix(text, "/"); strings.HasPrefix(c, view.SessionPrefix) {
		return "open_code", c
	}

	cmd := msg.Command()
	if cmd == "" {
		cmd = menu.Command(r.h.View.T, text)
	}
	switch cmd {
	case "start", "help":
		return "start", ""
	case "rules", "week", "me", "ping", "export":
		return cmd, ""
	default:
		return "unknown", ""
	}
}

func (r *Router) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) (string, error) {
	cb, err := view.ParseCallback(cq.Data)
	if err != nil {
		ctx = ctxutil.WithOp(ctx, "bad_callback")
		logging.FromContext(ctx, r.log).Warn("bad callback", zap.String("data", cq.Data))
		return "bad_callback", r.h.BadCallback(ctx, cq)
	}

	if r.guard != nil {
		first, err := r.guard.Acquire(ctx, cq.From.ID, cq.Data)
		if err != nil {
			// Redis недоступен: обрабатываем без защёлки
			logging.FromContext(ctx, r.log).Warn("click guard unavailable", zap.Error(err))
		} else if !first {
			return "duplicate_click", r.h.Busy(ctxutil.WithOp(ctx, "duplicate_click"), cq)
		}
	}

	op := cb.Action
	ctx = ctxutil.WithOp(ctx, op)
	switch cb.Action {
	case view.ActionOpen:
		return op, r.h.Open(ctx, cq, cb.SessionID)
	case view.ActionBook:
		return op, r.h.Book(ctx, cq, cb.SessionID, cb.Kind)
	case view.ActionCancel:
		return op, r.h.Cancel(ctx, cq, cb.SessionID)
	default:
		return "bad_callback", r.h.BadCallback(ctxutil.WithOp(ctx, "bad_callback"), cq)
	}
}
