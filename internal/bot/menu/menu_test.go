package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Spok95/tennis-booking-bot/internal/texts"
)

func TestMainKeyboard_AdminRow(t *testing.T) {
	c := texts.MustLoad("ru")

	kb := Main(c, false)
	assert.Len(t, kb.Keyboard, 2)
	assert.True(t, kb.ResizeKeyboard)
	assert.Equal(t, "📅 Расписание", kb.Keyboard[0][0].Text)

	kb = Main(c, true)
	assert.Len(t, kb.Keyboard, 3)
	assert.Equal(t, c.Menu.Export, kb.Keyboard[2][0].Text)
}

func TestCommand(t *testing.T) {
	c := texts.MustLoad("ru")
	assert.Equal(t, "week", Command(c, "📅 Расписание"))
	assert.Equal(t, "me", Command(c, c.Menu.Me))
	assert.Equal(t, "export", Command(c, c.Menu.Export))
	assert.Equal(t, "", Command(c, "привет"))
}
