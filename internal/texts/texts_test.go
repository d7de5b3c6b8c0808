package texts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/tennis-booking-bot/internal/models"
)

func TestLoad_AllLanguages(t *testing.T) {
	for _, lang := range []string{"ru", "en"} {
		t.Run(lang, func(t *testing.T) {
			c, err := Load(lang)
			require.NoError(t, err)
			assert.Equal(t, lang, c.Lang)
			assert.Len(t, c.ExportHeader, ExportColumns)
			assert.NotEmpty(t, c.Buttons.Single)
			assert.NotEmpty(t, c.Buttons.Cancel)
		})
	}
}

func TestValidate_RequiresEveryLabel(t *testing.T) {
	cases := map[string]func(c *Catalog){
		"export_sheet":   func(c *Catalog) { c.ExportSheet = "" },
		"export_header":  func(c *Catalog) { c.ExportHeader = c.ExportHeader[:6] },
		"export_column":  func(c *Catalog) { c.ExportHeader[2] = " " },
		"buttons.single": func(c *Catalog) { c.Buttons.Single = "" },
		"buttons.pass":   func(c *Catalog) { c.Buttons.Pass = "" },
		"buttons.cancel": func(c *Catalog) { c.Buttons.Cancel = "" },
		"buttons.open":   func(c *Catalog) { c.Buttons.Open = "" },
		"booked":         func(c *Catalog) { c.Booked = "" },
		"cancelled":      func(c *Catalog) { c.Cancelled = "" },
	}
	for name, spoil := range cases {
		t.Run(name, func(t *testing.T) {
			c := MustLoad("en")
			spoil(c)
			assert.Error(t, c.validate())
		})
	}
}

func TestLoad_DefaultAndUnknown(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLang, c.Lang)

	_, err = Load("de")
	assert.ErrorIs(t, err, ErrUnknownLang)
}

func TestCatalog_Helpers(t *testing.T) {
	c := MustLoad("ru")

	assert.Equal(t, "Пн", c.Weekday(time.Monday))
	assert.Equal(t, "Вс", c.Weekday(time.Sunday))
	assert.Equal(t, "абонемент", c.KindLabel(models.KindPass))
	assert.Equal(t, "trial", c.KindLabel(models.BookingKind("trial")))
	assert.Equal(t, "Отмена без списания — не позднее чем за 12 ч до начала.", c.RulesText(12))
	assert.Contains(t, c.Start, "/week")
}
