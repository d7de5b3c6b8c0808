package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/tennis-booking-bot/internal/bot/view"
	"github.com/Spok95/tennis-booking-bot/internal/logging"
	"github.com/Spok95/tennis-booking-bot/internal/metrics"
	"github.com/Spok95/tennis-booking-bot/internal/models"
)

const reminderBatch = 100

type ReminderStore interface {
	DueReminders(ctx context.Context, now time.Time, within time.Duration, limit int) ([]models.DueReminder, error)
	MarkReminded(ctx context.Context, bookingIDs []int64) error
}

type Sender interface {
	Send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Reminders напоминает о записи за Before до начала, по одному разу на запись.
type Reminders struct {
	Store  ReminderStore
	TG     Sender
	View   *view.Formatter
	Before time.Duration
	Now    func() time.Time
	Log    *zap.Logger
}

func (r *Reminders) Run(ctx context.Context) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	log := logging.FromContext(ctx, r.Log)

	// 1) Кандидаты
	due, err := r.Store.DueReminders(ctx, now(), r.Before, reminderBatch)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	// 2) Отправка
	done := make([]int64, 0, len(due))
	var failed int
	for _, d := range due {
		msg := tgbotapi.NewMessage(d.TgID, r.View.Reminder(d))
		msg.ParseMode = tgbotapi.ModeHTML
		_, err := r.TG.Send(ctx, msg)
		switch {
		case err == nil:
			metrics.RemindersSent.Inc()
			done = append(done, d.BookingID)
		case isBlocked(err):
			// пользователь заблокировал бота — повторять бессмысленно
			log.Info("reminder skipped: bot blocked", zap.Int64("booking_id", d.BookingID))
			done = append(done, d.BookingID)
		default:
			failed++
			log.Warn("reminder send failed", zap.Int64("booking_id", d.BookingID), zap.Error(err))
		}
	}

	// 3) Пометка
	if err := r.Store.MarkReminded(ctx, done); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("reminders: %d of %d not sent", failed, len(due))
	}
	return nil
}

func isBlocked(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 403
}
