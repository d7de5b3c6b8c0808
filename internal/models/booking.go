package models

import (
	"fmt"
	"time"
)

type BookingKind string

const (
	KindSingle BookingKind = "single"
	KindPass   BookingKind = "pass"
)

func ParseBookingKind(s string) (BookingKind, error) {
	switch BookingKind(s) {
	case KindSingle, KindPass:
		return BookingKind(s), nil
	default:
		return "", fmt.Errorf("unknown booking kind %q", s)
	}
}

// ProcedureOK — ответ book_session/cancel_booking при успехе; всё остальное — текст отказа.
const ProcedureOK = "OK"

// UserBooking — будущая активная запись пользователя (/me).
type UserBooking struct {
	ID       int64       `db:"id"`
	StartsAt time.Time   `db:"starts_at"`
	Kind     BookingKind `db:"kind"`
}

// DueReminder — активная запись, о которой пора напомнить.
type DueReminder struct {
	BookingID int64
	TgID      int64
	SessionID int64
	StartsAt  time.Time
	EndsAt    time.Time
	Kind      BookingKind
}
