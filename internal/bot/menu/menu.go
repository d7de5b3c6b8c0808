package menu

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/tennis-booking-bot/internal/texts"
)

// Main — постоянная клавиатура под полем ввода; админам добавляется выгрузка.
func Main(t *texts.Catalog, admin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(t.Menu.Week),
			tgbotapi.NewKeyboardButton(t.Menu.Me),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(t.Menu.Rules),
		),
	}
	if admin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(t.Menu.Export),
		))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// Command переводит нажатую кнопку меню в имя команды ("week", "me", ...); "" — не кнопка меню.
func Command(t *texts.Catalog, text string) string {
	switch text {
	case t.Menu.Week:
		return "week"
	case t.Menu.Me:
		return "me"
	case t.Menu.Rules:
		return "rules"
	case t.Menu.Export:
		return "export"
	default:
		return ""
	}
}
