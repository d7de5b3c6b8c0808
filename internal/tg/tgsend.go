package tg

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/Spok95/tennis-booking-bot/internal/metrics"
	"github.com/Spok95/tennis-booking-bot/internal/observability"
)

// API — то, что нужно от *tgbotapi.BotAPI; в тестах подменяется фейком.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Sender ограничивает исходящий поток (лимиты Bot API ~30 msg/s) и отправляет системные ошибки в Sentry.
type Sender struct {
	api     API
	limiter *rate.Limiter
}

func NewSender(api API, perSecond float64) *Sender {
	lim := rate.NewLimiter(rate.Inf, 0)
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return &Sender{api: api, limiter: lim}
}

func (s *Sender) Send(ctx context.Context, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	m, err := s.api.Send(msg)
	s.report(ctx, err)
	return m, err
}

// Request — для методов, у которых в ответе не Message (answerCallbackQuery и т.п.).
func (s *Sender) Request(ctx context.Context, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	r, err := s.api.Request(req)
	s.report(ctx, err)
	return r, err
}

func (s *Sender) report(ctx context.Context, err error) {
	if err == nil || IsNotModified(err) {
		return
	}
	metrics.TGSendErrors.WithLabelValues(errorCode(err)).Inc()
	if isSystemErr(err) {
		observability.CaptureErrCtx(ctx, err)
	}
}

// errorCode — код ответа Bot API или "network", если до API не дошли.
func errorCode(err error) string {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strconv.Itoa(apiErr.Code)
	}
	return "network"
}

// Считаем системными: 5xx, 429, сетевые/таймауты. 400-ки (валидации Telegram) в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	s := err.Error()
	if strings.Contains(s, "Bad Request") ||
		strings.Contains(s, "chat not found") ||
		strings.Contains(s, "can't parse entities") {
		return false
	}
	return true
}

// IsNotModified — повторная перерисовка карточки тем же текстом; не ошибка.
func IsNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
