package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/tennis-booking-bot/internal/bot/view"
	"github.com/Spok95/tennis-booking-bot/internal/models"
	"github.com/Spok95/tennis-booking-bot/internal/texts"
)

var msk = time.FixedZone("MSK", 3*60*60)

// fakeStore — память вместо tennis.*; результаты процедур задаются тестом.
type fakeStore struct {
	mu sync.Mutex

	users    map[int64]int64
	sessions map[int64]*models.SessionView
	week     []models.SessionLoad
	upcoming []models.UserBooking
	roster   []models.RosterRow
	active   map[int64]int64 // sessionID -> bookingID

	bookResult   string
	bookErr      error
	cancelResult string
	cancelErr    error
	err          error

	weekFrom, weekTo time.Time
	booked           []models.BookingKind
	cancelled        []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[int64]int64{},
		sessions:     map[int64]*models.SessionView{},
		active:       map[int64]int64{},
		bookResult:   models.ProcedureOK,
		cancelResult: models.ProcedureOK,
	}
}

func (s *fakeStore) EnsureUser(_ context.Context, tgID int64, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if id, ok := s.users[tgID]; ok {
		return id, nil
	}
	id := int64(len(s.users) + 1)
	s.users[tgID] = id
	return id, nil
}

func (s *fakeStore) ListWeek(_ context.Context, from, to time.Time) ([]models.SessionLoad, error) {
	s.weekFrom, s.weekTo = from, to
	return s.week, s.err
}

func (s *fakeStore) FindSessionByStart(_ context.Context, startsAt time.Time) (int64, bool, error) {
	for id, v := range s.sessions {
		if v.StartsAt.Equal(startsAt) {
			return id, true, nil
		}
	}
	return 0, false, s.err
}

func (s *fakeStore) GetSessionView(_ context.Context, _ int64, sessionID int64) (*models.SessionView, error) {
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (s *fakeStore) BookSession(_ context.Context, _ int64, sessionID int64, kind models.BookingKind) (string, error) {
	s.booked = append(s.booked, kind)
	if s.bookErr != nil {
		return "", s.bookErr
	}
	if s.bookResult == models.ProcedureOK {
		v := s.sessions[sessionID]
		v.IsBooked = true
		v.FreeLeft--
		s.active[sessionID] = 100 + sessionID
	}
	return s.bookResult, nil
}

func (s *fakeStore) FindActiveBooking(_ context.Context, _ int64, sessionID int64) (int64, bool, error) {
	id, ok := s.active[sessionID]
	return id, ok, s.err
}

func (s *fakeStore) CancelBooking(_ context.Context, bookingID int64) (string, error) {
	s.cancelled = append(s.cancelled, bookingID)
	return s.cancelResult, s.cancelErr
}

func (s *fakeStore) ListUpcoming(context.Context, int64, time.Time) ([]models.UserBooking, error) {
	return s.upcoming, s.err
}

func (s *fakeStore) WeekRoster(context.Context, time.Time, time.Time) ([]models.RosterRow, error) {
	return s.roster, s.err
}

// fakeTG запоминает всё, что бот отправил.
type fakeTG struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	reqErr    error
}

func (f *fakeTG) Send(_ context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeTG) Request(_ context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requested = append(f.requested, c)
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTG) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.sent)
	m, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "ожидали MessageConfig, получили %T", f.sent[len(f.sent)-1])
	return m
}

func (f *fakeTG) callbacks() []tgbotapi.CallbackConfig {
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requested {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (f *fakeTG) edits() []tgbotapi.EditMessageTextConfig {
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.requested {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

type fakeRoster struct{ rows []models.RosterRow }

func (f *fakeRoster) Build(rows []models.RosterRow, _ time.Time) (string, []byte, error) {
	f.rows = rows
	return "tennis.xlsx", []byte("xlsx"), nil
}

// 2025-01-22 12:00 MSK, среда
var now = time.Date(2025, 1, 22, 12, 0, 0, 0, msk)

func newTestHandlers(store *fakeStore, tgAPI *fakeTG) *Handlers {
	return New(Deps{
		Store:             store,
		TG:                tgAPI,
		View:              view.New(texts.MustLoad("ru"), msk),
		Roster:            &fakeRoster{},
		IsAdmin:           func(id int64) bool { return id == 1 },
		CancelNoticeHours: 12,
		Now:               func() time.Time { return now },
	})
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 42, FirstName: "Анна"},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: 42}},
		Data:    data,
	}
}

func seedSession(store *fakeStore, id int64, free int) *models.SessionView {
	starts := time.Date(2025, 1, 23, 19, 0, 0, 0, msk)
	v := &models.SessionView{ID: id, StartsAt: starts, EndsAt: starts.Add(90 * time.Minute), FreeLeft: free}
	store.sessions[id] = v
	return v
}

func TestWeek(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)

	require.NoError(t, h.Week(context.Background(), 42))
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, msk), store.weekFrom)
	assert.Equal(t, time.Date(2025, 1, 27, 0, 0, 0, 0, msk), store.weekTo)
	assert.Equal(t, "На эту неделю слоты ещё не созданы.", api.lastMessage(t).Text)

	store.week = []models.SessionLoad{{ID: 3, StartsAt: now.Add(time.Hour), FreeLeft: 2}}
	require.NoError(t, h.Week(context.Background(), 42))
	m := api.lastMessage(t)
	assert.Equal(t, tgbotapi.ModeHTML, m.ParseMode)
	assert.Contains(t, m.Text, "• #3 — Ср 22.01 13:00 (свободно: 2)")
	assert.NotNil(t, m.ReplyMarkup)
}

func TestWeek_DBError(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	store.err = errors.New("connection refused")
	h := newTestHandlers(store, api)

	err := h.Week(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, "⚠️ Что-то пошло не так, попробуйте позже.", api.lastMessage(t).Text)
}

func TestSimpleCommands(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)
	ctx := context.Background()

	require.NoError(t, h.Start(ctx, 42))
	m := api.lastMessage(t)
	assert.Contains(t, m.Text, "Запись на теннис")
	kb, ok := m.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.Len(t, kb.Keyboard, 2)

	require.NoError(t, h.Start(ctx, 1))
	kb = api.lastMessage(t).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	assert.Len(t, kb.Keyboard, 3, "админу — кнопка выгрузки")

	require.NoError(t, h.Rules(ctx, 42))
	assert.Equal(t, "Отмена без списания — не позднее чем за 12 ч до начала.", api.lastMessage(t).Text)

	require.NoError(t, h.Ping(ctx, 42))
	assert.Equal(t, "pong", api.lastMessage(t).Text)
}

func TestMe(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)
	from := &tgbotapi.User{ID: 42, FirstName: "Анна"}

	require.NoError(t, h.Me(context.Background(), 42, from))
	assert.Equal(t, "У вас нет будущих записей.", api.lastMessage(t).Text)
	assert.Equal(t, int64(1), store.users[42])

	store.upcoming = []models.UserBooking{{ID: 5, StartsAt: now.Add(24 * time.Hour), Kind: models.KindSingle}}
	require.NoError(t, h.Me(context.Background(), 42, from))
	assert.Equal(t, "<b>Мои записи</b>\n• booking 5: Чт 23.01 12:00 (разово)", api.lastMessage(t).Text)
}

func TestOpenByCode(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)
	from := &tgbotapi.User{ID: 42}
	seedSession(store, 9, 2)
	ctx := context.Background()

	require.NoError(t, h.OpenByCode(ctx, 42, from, "ses_2025-01-23_19-00"))
	m := api.lastMessage(t)
	assert.Equal(t, "<b>Слот #9</b>\nЧт 23.01 19:00–20:30\nСвободно: 2", m.Text)
	kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "book:9:single", *kb.InlineKeyboard[0][0].CallbackData)

	require.NoError(t, h.OpenByCode(ctx, 42, from, "ses_2025-01-23_20-00"))
	assert.Equal(t, "Слот не найден.", api.lastMessage(t).Text)

	require.NoError(t, h.OpenByCode(ctx, 42, from, "ses_завтра"))
	assert.Contains(t, api.lastMessage(t).Text, "ses_2025-01-20_19-00")
}

func TestOpenCallback_SendsNewCard(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)
	seedSession(store, 4, 0)

	require.NoError(t, h.Open(context.Background(), callback("open:4"), 4))
	require.Len(t, api.callbacks(), 1)
	m := api.lastMessage(t)
	assert.Contains(t, m.Text, "Слот #4")
	assert.Nil(t, m.ReplyMarkup, "мест нет и не записан — без кнопок")
}

func TestBook_OK(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)
	seedSession(store, 5, 2)

	require.NoError(t, h.Book(context.Background(), callback("book:5:pass"), 5, models.KindPass))
	assert.Equal(t, []models.BookingKind{models.KindPass}, store.booked)

	cbs := api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, "Вы записаны ✅", cbs[0].Text)
	assert.False(t, cbs[0].ShowAlert)

	edits := api.edits()
	require.Len(t, edits, 1)
	assert.Equal(t, 7, edits[0].MessageID)
	assert.Contains(t, edits[0].Text, "Свободно: 1")
	require.NotNil(t, edits[0].ReplyMarkup)
	assert.Equal(t, "cancel:5", *edits[0].ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestBook_RejectedTextIsAlert(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	store.bookResult = "Свободных мест нет."
	h := newTestHandlers(store, api)
	seedSession(store, 5, 0)

	require.NoError(t, h.Book(context.Background(), callback("book:5:single"), 5, models.KindSingle))
	cbs := api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, "Свободных мест нет.", cbs[0].Text)
	assert.True(t, cbs[0].ShowAlert)

	edits := api.edits()
	require.Len(t, edits, 1)
	assert.Nil(t, edits[0].ReplyMarkup)
}

func TestBook_ProcedureException(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	store.bookErr = &pgconn.PgError{Code: "P0001", Message: "Неизвестный тип записи: trial"}
	h := newTestHandlers(store, api)
	seedSession(store, 5, 2)

	require.NoError(t, h.Book(context.Background(), callback("book:5:single"), 5, models.KindSingle))
	cbs := api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, "Неизвестный тип записи: trial", cbs[0].Text)
	assert.True(t, cbs[0].ShowAlert)
}

func TestBook_SystemError(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	store.bookErr = errors.New("conn reset")
	h := newTestHandlers(store, api)
	seedSession(store, 5, 2)

	err := h.Book(context.Background(), callback("book:5:single"), 5, models.KindSingle)
	require.Error(t, err)
	cbs := api.callbacks()
	require.Len(t, cbs, 1)
	assert.True(t, cbs[0].ShowAlert)
	assert.Empty(t, api.edits())
}

func TestCancel(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)
	v := seedSession(store, 6, 1)
	v.IsBooked = true
	store.active[6] = 60

	require.NoError(t, h.Cancel(context.Background(), callback("cancel:6"), 6))
	assert.Equal(t, []int64{60}, store.cancelled)
	cbs := api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, "Запись отменена", cbs[0].Text)
	assert.Len(t, api.edits(), 1)
}

func TestCancel_LateIsAlert(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	store.cancelResult = "Запись отменена позже срока: занятие списано."
	h := newTestHandlers(store, api)
	seedSession(store, 6, 1)
	store.active[6] = 60

	require.NoError(t, h.Cancel(context.Background(), callback("cancel:6"), 6))
	cbs := api.callbacks()
	require.Len(t, cbs, 1)
	assert.True(t, cbs[0].ShowAlert)
	assert.Equal(t, store.cancelResult, cbs[0].Text)
}

func TestCancel_NoActiveBooking(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)
	seedSession(store, 6, 1)

	require.NoError(t, h.Cancel(context.Background(), callback("cancel:6"), 6))
	assert.Empty(t, store.cancelled)
	cbs := api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, "У вас нет активной записи.", cbs[0].Text)
	assert.True(t, cbs[0].ShowAlert)
}

func TestRefreshCard_NotModifiedIsNotAnError(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)
	seedSession(store, 6, 1)
	store.bookResult = "Вы уже записаны на этот слот."

	api.reqErr = errors.New("Bad Request: message is not modified")
	assert.NoError(t, h.Book(context.Background(), callback("book:6:single"), 6, models.KindSingle))
}

func TestExport(t *testing.T) {
	store, api := newFakeStore(), &fakeTG{}
	h := newTestHandlers(store, api)
	ctx := context.Background()

	require.NoError(t, h.Export(ctx, 42))
	assert.Equal(t, "🚫 Команда доступна только администраторам.", api.lastMessage(t).Text)

	require.NoError(t, h.Export(ctx, 1))
	doc, ok := api.sent[len(api.sent)-1].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, "Записи на неделю 20.01–26.01", doc.Caption)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "tennis.xlsx", file.Name)
}
