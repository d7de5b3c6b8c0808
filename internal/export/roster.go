package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/tennis-booking-bot/internal/models"
	"github.com/Spok95/tennis-booking-bot/internal/texts"
)

// Roster — выгрузка записей недели: строка на каждую активную запись,
// слот без записей — одной строкой с пустым участником.
type Roster struct {
	T   *texts.Catalog
	Loc *time.Location
}

// Build собирает xlsx и имя файла для отправки документом.
func (r Roster) Build(rows []models.RosterRow, from time.Time) (string, []byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := r.T.ExportSheet
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := r.T.ExportHeader
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", nil, fmt.Errorf("header: %w", err)
	}

	for i, row := range rows {
		line := i + 2
		start := row.StartsAt.In(r.Loc)
		end := row.EndsAt.In(r.Loc)

		participant, kind := "", ""
		if row.UserName != nil {
			participant = *row.UserName
		}
		if row.BookingKind != nil {
			kind = r.T.KindLabel(*row.BookingKind)
		}

		values := []any{
			row.SessionID,
			r.T.Weekday(start.Weekday()) + " " + start.Format("02.01.2006"),
			start.Format("15:04"),
			end.Format("15:04"),
			row.FreeLeft,
			participant,
			kind,
		}
		first, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return "", nil, err
		}
		if err := f.SetSheetRow(sheet, first, &values); err != nil {
			return "", nil, fmt.Errorf("row %d: %w", line, err)
		}
	}

	if err := applySheetFormatting(f, sheet); err != nil {
		return "", nil, fmt.Errorf("format: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("write xlsx: %w", err)
	}
	return r.FileName(from), bytes.Clone(buf.Bytes()), nil
}

func (r Roster) FileName(from time.Time) string {
	return sanitizeFileName(fmt.Sprintf("tennis_%s.xlsx", from.In(r.Loc).Format("2006-01-02")))
}
