package bot

import (
	"time"

	"github.com/evdnx/upbot/config"
)

// WindowFunc reports whether trading is permitted at the given instant.
type WindowFunc func(time.Time) bool

// Always permits continuous trading.
func Always() WindowFunc {
	return func(time.Time) bool { return true }
}

// FixedHours permits trading only in the first graceMinutes of the listed
// clock hours, lining the bot up with candle-open boundaries.
func FixedHours(hours []int, graceMinutes int) WindowFunc {
	allowed := make(map[int]bool, len(hours))
	for _, h := range hours {
		allowed[h] = true
	}
	return func(now time.Time) bool {
		return allowed[now.Hour()] && now.Minute() < graceMinutes
	}
}

// WindowFromConfig builds the predicate the config asks for.
func WindowFromConfig(ws config.WindowSettings) WindowFunc {
	if ws.Always {
		return Always()
	}
	return FixedHours(ws.Hours, ws.GraceMinutes)
}

// DailyCounters caps trading per calendar date. Roll resets the count
// when the date changes.
type DailyCounters struct {
	Date  string // yyyy-mm-dd
	Count int
}

func (d *DailyCounters) Roll(now time.Time) {
	day := now.Format("2006-01-02")
	if day != d.Date {
		d.Date = day
		d.Count = 0
	}
}

func (d *DailyCounters) Reached(max int) bool { return d.Count >= max }
