package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/tennis-booking-bot/internal/db"
	"github.com/Spok95/tennis-booking-bot/internal/metrics"
	"github.com/Spok95/tennis-booking-bot/internal/models"
)

// Open — кнопка из /week: карточка слота новым сообщением.
func (h *Handlers) Open(ctx context.Context, cq *tgbotapi.CallbackQuery, sessionID int64) error {
	ctx, uid, err := h.user(ctx, cq.From)
	if err != nil {
		return h.failCallback(ctx, cq, "open: ensure user", err)
	}
	if err := h.answer(ctx, cq, "", false); err != nil {
		h.log(ctx).Warn("answer callback failed", zap.Error(err))
	}
	return h.sendCard(ctx, callbackChat(cq), uid, sessionID)
}

// Book — book:<sid>:<kind>. Решение принимает tennis.book_session;
// "OK" показываем тостом, любой другой ответ — алертом, затем перерисовываем карточку.
func (h *Handlers) Book(ctx context.Context, cq *tgbotapi.CallbackQuery, sessionID int64, kind models.BookingKind) error {
	ctx, uid, err := h.user(ctx, cq.From)
	if err != nil {
		return h.failCallback(ctx, cq, "book: ensure user", err)
	}

	result, err := h.Store.BookSession(ctx, uid, sessionID, kind)
	if err != nil {
		text, ok := db.ProcedureMessage(err)
		if !ok {
			return h.failCallback(ctx, cq, fmt.Sprintf("book session %d", sessionID), err)
		}
		result = text
	}
	metrics.Bookings.WithLabelValues(string(kind), metrics.Result(result)).Inc()
	h.log(ctx).Info("book_session",
		zap.Int64("session_id", sessionID), zap.String("kind", string(kind)), zap.String("result", result))

	text, alert := h.View.CallbackAnswer(result, h.View.T.Booked)
	if err := h.answer(ctx, cq, text, alert); err != nil {
		h.log(ctx).Warn("answer callback failed", zap.Error(err))
	}
	return h.refreshCard(ctx, cq, uid, sessionID)
}

// Cancel — cancel:<sid>: отменяет активную запись нажавшего на этот слот.
func (h *Handlers) Cancel(ctx context.Context, cq *tgbotapi.CallbackQuery, sessionID int64) error {
	ctx, uid, err := h.user(ctx, cq.From)
	if err != nil {
		return h.failCallback(ctx, cq, "cancel: ensure user", err)
	}

	bookingID, found, err := h.Store.FindActiveBooking(ctx, uid, sessionID)
	if err != nil {
		return h.failCallback(ctx, cq, "cancel: find booking", err)
	}
	if !found {
		if err := h.answer(ctx, cq, h.View.T.NoActiveBooking, true); err != nil {
			h.log(ctx).Warn("answer callback failed", zap.Error(err))
		}
		return h.refreshCard(ctx, cq, uid, sessionID)
	}

	result, err := h.Store.CancelBooking(ctx, bookingID)
	if err != nil {
		text, ok := db.ProcedureMessage(err)
		if !ok {
			return h.failCallback(ctx, cq, fmt.Sprintf("cancel booking %d", bookingID), err)
		}
		result = text
	}
	metrics.Cancellations.WithLabelValues(metrics.Result(result)).Inc()
	h.log(ctx).Info("cancel_booking", zap.Int64("booking_id", bookingID), zap.String("result", result))

	text, alert := h.View.CallbackAnswer(result, h.View.T.Cancelled)
	if err := h.answer(ctx, cq, text, alert); err != nil {
		h.log(ctx).Warn("answer callback failed", zap.Error(err))
	}
	return h.refreshCard(ctx, cq, uid, sessionID)
}

// BadCallback — данные кнопки не разобрались (старая клавиатура и т.п.).
func (h *Handlers) BadCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	return h.answer(ctx, cq, h.View.T.UnknownAction, true)
}

// Busy — повторное нажатие, пока первое ещё в работе.
func (h *Handlers) Busy(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	return h.answer(ctx, cq, h.View.T.Processing, false)
}

// refreshCard перерисовывает карточку в том же сообщении.
func (h *Handlers) refreshCard(ctx context.Context, cq *tgbotapi.CallbackQuery, userID, sessionID int64) error {
	if cq.Message == nil {
		return h.sendCard(ctx, callbackChat(cq), userID, sessionID)
	}
	chatID, msgID := cq.Message.Chat.ID, cq.Message.MessageID

	v, err := h.Store.GetSessionView(ctx, userID, sessionID)
	if err != nil {
		return fmt.Errorf("refresh card %d: %w", sessionID, err)
	}

	var edit tgbotapi.EditMessageTextConfig
	switch {
	case v == nil:
		edit = tgbotapi.NewEditMessageText(chatID, msgID, h.View.T.SessionNotFound)
	default:
		if kb := h.View.SessionKeyboard(v); kb != nil {
			edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, h.View.SessionCard(v), *kb)
		} else {
			edit = tgbotapi.NewEditMessageText(chatID, msgID, h.View.SessionCard(v))
		}
	}
	edit.ParseMode = tgbotapi.ModeHTML
	_, err = h.TG.Request(ctx, edit)
	return ignoreNotModified(err)
}
