package services

import (
	"fmt"
	"strings"
	"time"

	"ledger/internal/core"
)

// ResolveDateRange turns date-only filter inputs (YYYY-MM-DD) into full
// timestamp bounds: the start date maps to 00:00:00 and the end date to
// 23:59:59 of that day, both UTC, so a range covers its named days
// entirely. Blank inputs leave the corresponding bound open.
func ResolveDateRange(startDay, endDay string) (core.DateRange, error) {
	var dr core.DateRange

	if s := strings.TrimSpace(startDay); s != "" {
		day, err := time.Parse(core.DayLayout, s)
		if err != nil {
			return core.DateRange{}, fmt.Errorf("start date %q: %w", s, core.ErrInvalidDate)
		}
		dr.Start = day.UTC()
	}

	if s := strings.TrimSpace(endDay); s != "" {
		day, err := time.Parse(core.DayLayout, s)
		if err != nil {
			return core.DateRange{}, fmt.Errorf("end date %q: %w", s, core.ErrInvalidDate)
		}
		dr.End = time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, time.UTC)
	}

	if !dr.Start.IsZero() && !dr.End.IsZero() && dr.End.Before(dr.Start) {
		return core.DateRange{}, fmt.Errorf("end before start: %w", core.ErrInvalidDate)
	}

	return dr, nil
}
