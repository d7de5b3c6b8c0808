package models

import "time"

// SessionLoad — строка недельного расписания: слот и остаток мест из tennis.v_session_load.
type SessionLoad struct {
	ID       int64     `db:"id"`
	StartsAt time.Time `db:"starts_at"`
	EndsAt   time.Time `db:"ends_at"`
	FreeLeft int       `db:"free_left"`
}

// SessionView — карточка слота глазами конкретного пользователя.
type SessionView struct {
	ID       int64     `db:"id"`
	StartsAt time.Time `db:"starts_at"`
	EndsAt   time.Time `db:"ends_at"`
	FreeLeft int       `db:"free_left"`
	IsBooked bool      `db:"is_booked"`
}

// RosterRow — слот и (если есть) одна активная запись на него; для выгрузки.
type RosterRow struct {
	SessionID   int64
	StartsAt    time.Time
	EndsAt      time.Time
	FreeLeft    int
	BookingID   *int64
	UserName    *string
	BookingKind *BookingKind
}
