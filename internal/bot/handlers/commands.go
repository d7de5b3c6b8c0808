package handlers

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/tennis-booking-bot/internal/bot/menu"
	"github.com/Spok95/tennis-booking-bot/internal/bot/view"
)

// Start — приветствие и постоянная клавиатура с командами.
func (h *Handlers) Start(ctx context.Context, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, h.View.T.Start)
	msg.ReplyMarkup = menu.Main(h.View.T, h.IsAdmin(chatID))
	_, err := h.TG.Send(ctx, msg)
	return err
}

func (h *Handlers) Rules(ctx context.Context, chatID int64) error {
	return h.send(ctx, chatID, h.View.T.RulesText(h.CancelNoticeHours), nil)
}

func (h *Handlers) Ping(ctx context.Context, chatID int64) error {
	return h.send(ctx, chatID, h.View.T.Pong, nil)
}

func (h *Handlers) Unknown(ctx context.Context, chatID int64) error {
	return h.send(ctx, chatID, h.View.T.UnknownCommand, nil)
}

// Week — /week: слоты текущей недели (пн 00:00 — вс 24:00 по местному времени).
func (h *Handlers) Week(ctx context.Context, chatID int64) error {
	from, to := view.WeekBounds(h.Now(), h.View.Loc)
	list, err := h.Store.ListWeek(ctx, from, to)
	if err != nil {
		return h.fail(ctx, chatID, "week", err)
	}
	text, kb := h.View.Week(list)
	return h.send(ctx, chatID, text, kb)
}

// Me — /me: будущие активные записи.
func (h *Handlers) Me(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	ctx, uid, err := h.user(ctx, from)
	if err != nil {
		return h.fail(ctx, chatID, "me: ensure user", err)
	}
	list, err := h.Store.ListUpcoming(ctx, uid, h.Now())
	if err != nil {
		return h.fail(ctx, chatID, "me", err)
	}
	return h.send(ctx, chatID, h.View.MyBookings(list), nil)
}

// OpenByCode — текст вида ses_2025-01-20_19-00: карточка слота с кнопками.
func (h *Handlers) OpenByCode(ctx context.Context, chatID int64, from *tgbotapi.User, text string) error {
	startsAt, err := view.ParseSessionCode(text, h.View.Loc)
	if errors.Is(err, view.ErrBadSessionCode) {
		return h.send(ctx, chatID, h.View.T.BadSessionCode, nil)
	}
	if err != nil {
		return h.fail(ctx, chatID, "open by code", err)
	}

	sid, found, err := h.Store.FindSessionByStart(ctx, startsAt)
	if err != nil {
		return h.fail(ctx, chatID, "open by code", err)
	}
	if !found {
		return h.send(ctx, chatID, h.View.T.SessionNotFound, nil)
	}

	ctx, uid, err := h.user(ctx, from)
	if err != nil {
		return h.fail(ctx, chatID, "open by code: ensure user", err)
	}
	return h.sendCard(ctx, chatID, uid, sid)
}

func (h *Handlers) sendCard(ctx context.Context, chatID, userID, sessionID int64) error {
	v, err := h.Store.GetSessionView(ctx, userID, sessionID)
	if err != nil {
		return h.fail(ctx, chatID, fmt.Sprintf("session %d", sessionID), err)
	}
	if v == nil {
		return h.send(ctx, chatID, h.View.T.SessionNotFound, nil)
	}
	return h.send(ctx, chatID, h.View.SessionCard(v), h.View.SessionKeyboard(v))
}

// Export — /export для ADMIN_IDS: xlsx с записями текущей недели.
func (h *Handlers) Export(ctx context.Context, chatID int64) error {
	if !h.IsAdmin(chatID) {
		return h.send(ctx, chatID, h.View.T.ExportForbidden, nil)
	}
	from, to := view.WeekBounds(h.Now(), h.View.Loc)
	rows, err := h.Store.WeekRoster(ctx, from, to)
	if err != nil {
		return h.fail(ctx, chatID, "export", err)
	}
	name, data, err := h.Roster.Build(rows, from)
	if err != nil {
		return h.fail(ctx, chatID, "export: build", err)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = fmt.Sprintf(h.View.T.ExportCaption, from.Format("02.01"), to.AddDate(0, 0, -1).Format("02.01"))
	_, err = h.TG.Send(ctx, doc)
	return err
}
