package view

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/tennis-booking-bot/internal/models"
	"github.com/Spok95/tennis-booking-bot/internal/texts"
)

// MaxCallbackText — лимит Telegram на текст answerCallbackQuery.
const MaxCallbackText = 200

const openButtonsPerRow = 3

// Formatter превращает строки из БД в тексты и клавиатуры.
// Все времена показываются в зоне Loc.
type Formatter struct {
	T   *texts.Catalog
	Loc *time.Location
}

func New(t *texts.Catalog, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{T: t, Loc: loc}
}

// WeekBounds — [понедельник 00:00, +7 дней) недели, в которую попадает now, в зоне loc.
func WeekBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	from := time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 7)
}

// When — "Пн 20.01 19:00".
func (f *Formatter) When(t time.Time) string {
	lt := t.In(f.Loc)
	return f.T.Weekday(lt.Weekday()) + " " + lt.Format("02.01 15:04")
}

func (f *Formatter) clock(t time.Time) string {
	return t.In(f.Loc).Format("15:04")
}

// Week — текст /week и кнопки открытия карточек (nil, если слотов нет).
func (f *Formatter) Week(list []models.SessionLoad) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(list) == 0 {
		return f.T.WeekEmpty, nil
	}
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, f.T.WeekHeader)

	var (
		rows [][]tgbotapi.InlineKeyboardButton
		row  []tgbotapi.InlineKeyboardButton
	)
	for _, s := range list {
		lines = append(lines, fmt.Sprintf(f.T.WeekLine, s.ID, f.When(s.StartsAt), s.FreeLeft))

		label := fmt.Sprintf(f.T.Buttons.Open, s.ID, f.When(s.StartsAt))
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, OpenData(s.ID)))
		if len(row) == openButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return strings.Join(lines, "\n"), &kb
}

// SessionCard — "<b>Слот #id</b>\nПн 20.01 19:00–20:30\nСвободно: N".
func (f *Formatter) SessionCard(v *models.SessionView) string {
	return fmt.Sprintf(f.T.Card, v.ID, f.When(v.StartsAt), f.clock(v.EndsAt), v.FreeLeft)
}

// SessionKeyboard: записанному — только отмена; при свободных местах — два вида записи; иначе nil.
func (f *Formatter) SessionKeyboard(v *models.SessionView) *tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	switch {
	case v.IsBooked:
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(f.T.Buttons.Cancel, CancelData(v.ID)))
	case v.FreeLeft > 0:
		row = append(row,
			tgbotapi.NewInlineKeyboardButtonData(f.T.Buttons.Single, BookData(v.ID, models.KindSingle)),
			tgbotapi.NewInlineKeyboardButtonData(f.T.Buttons.Pass, BookData(v.ID, models.KindPass)),
		)
	default:
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}

func (f *Formatter) MyBookings(list []models.UserBooking) string {
	if len(list) == 0 {
		return f.T.MyEmpty
	}
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, f.T.MyHeader)
	for _, b := range list {
		lines = append(lines, fmt.Sprintf(f.T.MyLine, b.ID, f.When(b.StartsAt), f.T.KindLabel(b.Kind)))
	}
	return strings.Join(lines, "\n")
}

// CallbackAnswer — "OK" процедуры превращается в короткий тост okText,
// любой другой текст показывается алертом как есть.
func (f *Formatter) CallbackAnswer(procedureText, okText string) (string, bool) {
	if procedureText == models.ProcedureOK {
		return okText, false
	}
	return Truncate(procedureText, MaxCallbackText), true
}

// Reminder заканчивается кликабельной командой /ses_…, которая открывает карточку слота.
func (f *Formatter) Reminder(r models.DueReminder) string {
	return fmt.Sprintf(f.T.Reminder, f.When(r.StartsAt), f.clock(r.EndsAt), f.T.KindLabel(r.Kind),
		r.SessionID, SessionCode(r.StartsAt, f.Loc))
}

// Truncate обрезает по рунам, добавляя многоточие.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
