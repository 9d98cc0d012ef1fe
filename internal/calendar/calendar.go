// Package calendar provides US equity trading-session helpers. The engine
// measures cooldown in sessions, not calendar days, so "the previous
// session" has to skip weekends and known market holidays.
package calendar

import "time"

// NYLocation is the timezone for US equity markets.
var NYLocation *time.Location

func init() {
	var err error
	NYLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to UTC-5
		NYLocation = time.FixedZone("EST", -5*60*60)
	}
}

// fixed-date NYSE full-day closures, by year
var holidays = map[int]map[string]bool{}

// AddHoliday registers an additional full-day market closure.
func AddHoliday(d time.Time) {
	y := d.Year()
	if holidays[y] == nil {
		holidays[y] = make(map[string]bool)
	}
	holidays[y][d.Format("2006-01-02")] = true
}

// IsTradingDay reports whether the market holds a regular session on d.
// Weekends and registered holidays are closed.
func IsTradingDay(d time.Time) bool {
	wd := d.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if y, ok := holidays[d.Year()]; ok && y[d.Format("2006-01-02")] {
		return false
	}
	return true
}

// PrevSession returns the most recent trading session strictly before d.
func PrevSession(d time.Time) time.Time {
	p := d.AddDate(0, 0, -1)
	for !IsTradingDay(p) {
		p = p.AddDate(0, 0, -1)
	}
	return p
}

// NextSession returns the first trading session strictly after d.
func NextSession(d time.Time) time.Time {
	n := d.AddDate(0, 0, 1)
	for !IsTradingDay(n) {
		n = n.AddDate(0, 0, 1)
	}
	return n
}

// SessionsBetween counts trading sessions after from up to and including to.
// Returns 0 when to is not after from.
func SessionsBetween(from, to time.Time) int {
	from = truncate(from)
	to = truncate(to)
	if !to.After(from) {
		return 0
	}
	count := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			count++
		}
	}
	return count
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func truncate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
