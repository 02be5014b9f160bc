package scheduler

import (
	"log"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar decides whether the exchange is open on a given day.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Location *time.Location
}

// NewTradingCalendar loads the calendar for an exchange MIC such as "xshg".
// When the MIC is unknown it falls back to Monday to Friday in China time.
func NewTradingCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		log.Printf("[WARN] No calendar for MIC %q, using Mon-Fri fallback", mic)
		return &TradingCalendar{Fallback: true, Location: chinaLocation()}
	}
	loc := cal.Loc
	if loc == nil {
		loc = chinaLocation()
	}
	return &TradingCalendar{Calendar: cal, Location: loc}
}

func chinaLocation() *time.Location {
	if loc, err := time.LoadLocation("Asia/Shanghai"); err == nil {
		return loc
	}
	return time.FixedZone("CST", 8*3600)
}

// IsTradingDay reports whether t falls on an exchange business day.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	t = t.In(tc.Location)
	if tc.Fallback {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(t)
}
