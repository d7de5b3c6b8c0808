package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/tennis-booking-bot/internal/models"
)

// SessionPrefix — начало текстовой ссылки на слот: ses_2025-01-20_19-00.
const SessionPrefix = "ses_"

const sessionCodeLayout = "2006-01-02_15-04"

var (
	ErrBadSessionCode = errors.New("bad session code")
	ErrBadCallback    = errors.New("bad callback data")
)

func SessionCode(startsAt time.Time, loc *time.Location) string {
	return SessionPrefix + startsAt.In(loc).Format(sessionCodeLayout)
}

// ParseSessionCode разбирает "ses_YYYY-MM-DD_HH-MI" как местное время loc.
// Хвост после кода (например, "@botname") отбрасывается.
func ParseSessionCode(text string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, SessionPrefix) {
		return time.Time{}, ErrBadSessionCode
	}
	code := strings.TrimPrefix(text, SessionPrefix)
	if i := strings.IndexAny(code, "@ "); i >= 0 {
		code = code[:i]
	}
	t, err := time.ParseInLocation(sessionCodeLayout, code, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadSessionCode, code)
	}
	return t, nil
}

// Данные inline-кнопок.
const (
	ActionOpen   = "open"
	ActionBook   = "book"
	ActionCancel = "cancel"
)

type Callback struct {
	Action    string
	SessionID int64
	Kind      models.BookingKind // только для book
}

func OpenData(sessionID int64) string {
	return ActionOpen + ":" + strconv.FormatInt(sessionID, 10)
}

func BookData(sessionID int64, kind models.BookingKind) string {
	return ActionBook + ":" + strconv.FormatInt(sessionID, 10) + ":" + string(kind)
}

func CancelData(sessionID int64) string {
	return ActionCancel + ":" + strconv.FormatInt(sessionID, 10)
}

// ParseCallback: open:<sid>, book:<sid>:<single|pass>, cancel:<sid>.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	sid, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || sid <= 0 {
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	cb := Callback{Action: parts[0], SessionID: sid}

	switch cb.Action {
	case ActionOpen, ActionCancel:
		if len(parts) != 2 {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
	case ActionBook:
		if len(parts) != 3 {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		kind, err := models.ParseBookingKind(parts[2])
		if err != nil {
			return Callback{}, fmt.Errorf("%w: %v", ErrBadCallback, err)
		}
		cb.Kind = kind
	default:
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	return cb, nil
}
