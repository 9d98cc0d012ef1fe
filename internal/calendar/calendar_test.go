package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestIsTradingDay(t *testing.T) {
	assert.True(t, IsTradingDay(d(2024, 6, 5)))   // Wednesday
	assert.False(t, IsTradingDay(d(2024, 6, 8)))  // Saturday
	assert.False(t, IsTradingDay(d(2024, 6, 9)))  // Sunday

	holiday := d(2024, 7, 4)
	assert.True(t, IsTradingDay(holiday))
	AddHoliday(holiday)
	assert.False(t, IsTradingDay(holiday))
}

func TestPrevSessionSkipsWeekend(t *testing.T) {
	// Monday's previous session is Friday.
	assert.Equal(t, d(2024, 6, 7), PrevSession(d(2024, 6, 10)))
	// Mid-week is just the day before.
	assert.Equal(t, d(2024, 6, 11), PrevSession(d(2024, 6, 12)))
}

func TestNextSessionSkipsWeekend(t *testing.T) {
	assert.Equal(t, d(2024, 6, 10), NextSession(d(2024, 6, 7)))
	assert.Equal(t, d(2024, 6, 13), NextSession(d(2024, 6, 12)))
}

func TestSessionsBetween(t *testing.T) {
	// Friday to Monday is one session.
	assert.Equal(t, 1, SessionsBetween(d(2024, 6, 7), d(2024, 6, 10)))
	// A full week spans five sessions.
	assert.Equal(t, 5, SessionsBetween(d(2024, 6, 7), d(2024, 6, 14)))
	// Not after: zero.
	assert.Equal(t, 0, SessionsBetween(d(2024, 6, 10), d(2024, 6, 10)))
	assert.Equal(t, 0, SessionsBetween(d(2024, 6, 10), d(2024, 6, 7)))
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2024, 6, 5, 9, 30, 0, 0, NYLocation)
	evening := time.Date(2024, 6, 5, 16, 0, 0, 0, NYLocation)
	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(morning, morning.AddDate(0, 0, 1)))
}
