package handlers

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/tennis-booking-bot/internal/bot/view"
	"github.com/Spok95/tennis-booking-bot/internal/ctxutil"
	"github.com/Spok95/tennis-booking-bot/internal/logging"
	"github.com/Spok95/tennis-booking-bot/internal/models"
	"github.com/Spok95/tennis-booking-bot/internal/tg"
)

// Store — запросы к tennis.*, которые нужны обработчикам (реализует *db.Store).
type Store interface {
	EnsureUser(ctx context.Context, tgID int64, name string) (int64, error)
	ListWeek(ctx context.Context, from, to time.Time) ([]models.SessionLoad, error)
	FindSessionByStart(ctx context.Context, startsAt time.Time) (int64, bool, error)
	GetSessionView(ctx context.Context, userID, sessionID int64) (*models.SessionView, error)
	BookSession(ctx context.Context, userID, sessionID int64, kind models.BookingKind) (string, error)
	FindActiveBooking(ctx context.Context, userID, sessionID int64) (int64, bool, error)
	CancelBooking(ctx context.Context, bookingID int64) (string, error)
	ListUpcoming(ctx context.Context, userID int64, now time.Time) ([]models.UserBooking, error)
	WeekRoster(ctx context.Context, from, to time.Time) ([]models.RosterRow, error)
}

// Messenger — исходящие вызовы Bot API (реализует *tg.Sender).
type Messenger interface {
	Send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Exporter собирает xlsx-выгрузку недели (реализует export.Roster).
type Exporter interface {
	Build(rows []models.RosterRow, from time.Time) (string, []byte, error)
}

type Deps struct {
	Store             Store
	TG                Messenger
	View              *view.Formatter
	Roster            Exporter
	Log               *zap.Logger
	IsAdmin           func(chatID int64) bool
	CancelNoticeHours int
	Now               func() time.Time
}

// Handlers — реакции бота на команды и нажатия кнопок.
// Ошибка из метода означает системный сбой: пользователь уже получил общий текст,
// а вызывающий логирует её и отправляет в Sentry.
type Handlers struct {
	Deps
}

func New(d Deps) *Handlers {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.IsAdmin == nil {
		d.IsAdmin = func(int64) bool { return false }
	}
	return &Handlers{Deps: d}
}

// log — логгер с полями апдейта из ctx (request_id, chat_id, user_id, op).
func (h *Handlers) log(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, h.Log)
}

func (h *Handlers) send(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	_, err := h.TG.Send(ctx, msg)
	return err
}

func (h *Handlers) answer(ctx context.Context, cq *tgbotapi.CallbackQuery, text string, alert bool) error {
	cb := tgbotapi.NewCallback(cq.ID, text)
	cb.ShowAlert = alert
	_, err := h.TG.Request(ctx, cb)
	return err
}

// fail — общий текст пользователю, исходная ошибка наверх.
func (h *Handlers) fail(ctx context.Context, chatID int64, op string, err error) error {
	if sendErr := h.send(ctx, chatID, h.View.T.InternalError, nil); sendErr != nil {
		h.log(ctx).Warn("send internal error text failed", zap.Error(sendErr))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (h *Handlers) failCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, op string, err error) error {
	if ansErr := h.answer(ctx, cq, h.View.T.InternalError, true); ansErr != nil {
		h.log(ctx).Warn("answer callback failed", zap.Error(ansErr))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// user — id в tennis.users для отправителя апдейта; контекст дополняется user_id.
func (h *Handlers) user(ctx context.Context, from *tgbotapi.User) (context.Context, int64, error) {
	if from == nil {
		return ctx, 0, fmt.Errorf("update without sender")
	}
	id, err := h.Store.EnsureUser(ctx, from.ID, models.DisplayName(from.FirstName, from.LastName, from.UserName))
	if err != nil {
		return ctx, 0, err
	}
	return ctxutil.WithUserID(ctx, id), id, nil
}

// callbackChat — чат, где нажата кнопка; для сообщений без Message (inline) — личка нажавшего.
func callbackChat(cq *tgbotapi.CallbackQuery) int64 {
	if cq.Message != nil && cq.Message.Chat != nil {
		return cq.Message.Chat.ID
	}
	return cq.From.ID
}

func ignoreNotModified(err error) error {
	if tg.IsNotModified(err) {
		return nil
	}
	return err
}
