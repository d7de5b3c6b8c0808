package texts

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Spok95/tennis-booking-bot/internal/models"
)

//go:embed *.yaml
var files embed.FS

const DefaultLang = "ru"

var ErrUnknownLang = errors.New("unknown language")

// Menu — кнопки постоянной клавиатуры.
type Menu struct {
	Week   string `yaml:"week"`
	Me     string `yaml:"me"`
	Rules  string `yaml:"rules"`
	Export string `yaml:"export"`
}

type Buttons struct {
	Single string `yaml:"single"`
	Pass   string `yaml:"pass"`
	Cancel string `yaml:"cancel"`
	Open   string `yaml:"open"` // #id, время
}

// Catalog — все строки интерфейса одного языка.
// Поля с %-плейсхолдерами форматируются в internal/bot/view.
type Catalog struct {
	Lang     string            `yaml:"-"`
	Weekdays []string          `yaml:"weekdays"` // с понедельника
	Kinds    map[string]string `yaml:"kinds"`

	Start          string `yaml:"start"`
	Rules          string `yaml:"rules"`
	Pong           string `yaml:"pong"`
	UnknownCommand string `yaml:"unknown_command"`

	WeekHeader string `yaml:"week_header"`
	WeekLine   string `yaml:"week_line"`
	WeekEmpty  string `yaml:"week_empty"`

	Card            string `yaml:"card"`
	SessionNotFound string `yaml:"session_not_found"`
	BadSessionCode  string `yaml:"bad_session_code"`

	MyHeader string `yaml:"my_header"`
	MyLine   string `yaml:"my_line"`
	MyEmpty  string `yaml:"my_empty"`

	Menu    Menu    `yaml:"menu"`
	Buttons Buttons `yaml:"buttons"`

	Booked          string `yaml:"booked"`
	Cancelled       string `yaml:"cancelled"`
	NoActiveBooking string `yaml:"no_active_booking"`
	Processing      string `yaml:"processing"`
	UnknownAction   string `yaml:"unknown_action"`
	InternalError   string `yaml:"internal_error"`

	ExportForbidden string   `yaml:"export_forbidden"`
	ExportCaption   string   `yaml:"export_caption"`
	ExportSheet     string   `yaml:"export_sheet"`
	ExportHeader    []string `yaml:"export_header"`

	Reminder string `yaml:"reminder"`
}

// Load читает каталог языка lang ("ru", "en").
func Load(lang string) (*Catalog, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = DefaultLang
	}
	raw, err := files.ReadFile(lang + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLang, lang)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("texts %s: %w", lang, err)
	}
	c.Lang = lang
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("texts %s: %w", lang, err)
	}
	return &c, nil
}

// MustLoad — для тестов и дефолтного языка, который зашит в бинарник.
func MustLoad(lang string) *Catalog {
	c, err := Load(lang)
	if err != nil {
		panic(err)
	}
	return c
}

// ExportColumns — колонок в xlsx-выгрузке недели.
const ExportColumns = 7

func (c *Catalog) validate() error {
	if len(c.Weekdays) != 7 {
		return fmt.Errorf("weekdays: want 7, got %d", len(c.Weekdays))
	}
	for _, k := range []models.BookingKind{models.KindSingle, models.KindPass} {
		if c.Kinds[string(k)] == "" {
			return fmt.Errorf("kinds.%s is empty", k)
		}
	}
	if len(c.ExportHeader) != ExportColumns {
		return fmt.Errorf("export_header: want %d, got %d", ExportColumns, len(c.ExportHeader))
	}
	required := map[string]string{
		"start": c.Start, "rules": c.Rules, "pong": c.Pong, "unknown_command": c.UnknownCommand,
		"week_header": c.WeekHeader, "week_line": c.WeekLine, "week_empty": c.WeekEmpty,
		"card": c.Card, "session_not_found": c.SessionNotFound, "bad_session_code": c.BadSessionCode,
		"my_header": c.MyHeader, "my_line": c.MyLine, "my_empty": c.MyEmpty,
		"menu.week": c.Menu.Week, "menu.me": c.Menu.Me, "menu.rules": c.Menu.Rules, "menu.export": c.Menu.Export,
		"buttons.single": c.Buttons.Single, "buttons.pass": c.Buttons.Pass,
		"buttons.cancel": c.Buttons.Cancel, "buttons.open": c.Buttons.Open,
		"booked": c.Booked, "cancelled": c.Cancelled, "no_active_booking": c.NoActiveBooking,
		"processing": c.Processing, "unknown_action": c.UnknownAction, "internal_error": c.InternalError,
		"export_forbidden": c.ExportForbidden, "export_caption": c.ExportCaption, "export_sheet": c.ExportSheet,
		"reminder": c.Reminder,
	}
	for k, v := range required {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is empty", k)
		}
	}
	for i, h := range c.ExportHeader {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("export_header[%d] is empty", i)
		}
	}
	return nil
}

// Weekday — короткое название дня недели.
func (c *Catalog) Weekday(d time.Weekday) string {
	// time.Sunday == 0, а список начинается с понедельника
	return c.Weekdays[(int(d)+6)%7]
}

func (c *Catalog) KindLabel(k models.BookingKind) string {
	if s, ok := c.Kinds[string(k)]; ok {
		return s
	}
	return string(k)
}

func (c *Catalog) RulesText(hours int) string {
	return fmt.Sprintf(c.Rules, hours)
}
