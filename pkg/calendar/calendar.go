package calendar

import (
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers trading-day questions for the Shanghai /
// Shenzhen session calendar. When the MIC calendar cannot be loaded it
// falls back to plain Mon-Fri, which keeps the analysis usable on
// calendars the library does not ship.
type TradingCalendar struct {
	cal      *calendar.Calendar
	fallback bool
}

// NewXSHG returns the Shanghai Stock Exchange calendar (ISO 10383 MIC
// "xshg"); both mainland exchanges share the same session days.
func NewXSHG() *TradingCalendar {
	cal := calendar.GetCalendar("xshg")
	if cal == nil {
		return &TradingCalendar{fallback: true}
	}
	return &TradingCalendar{cal: cal}
}

// IsTradingDay reports whether date is a session day.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.fallback {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.cal.IsBusinessDay(date)
}

// PrevTradingDay returns the last session day strictly before date.
func (tc *TradingCalendar) PrevTradingDay(date time.Time) time.Time {
	d := date.AddDate(0, 0, -1)
	for !tc.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Window returns the most recent n session days ending at (and
// including) end if end itself is a session day, ascending order.
func (tc *TradingCalendar) Window(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	d := end
	if !tc.IsTradingDay(d) {
		d = tc.PrevTradingDay(d)
	}
	for len(out) < n {
		out = append(out, d)
		d = tc.PrevTradingDay(d)
	}
	// reverse to ascending
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
