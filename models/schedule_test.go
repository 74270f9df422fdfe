package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	// 2026-01-05 is a Monday.
	return time.Date(2026, 1, 5, hour, 30, 0, 0, time.UTC)
}

func TestSchedule_Disabled(t *testing.T) {
	s := Schedule{Enabled: false, StartHour: 0, EndHour: 24}
	assert.False(t, s.ActiveAt(at(12)))
}

func TestSchedule_DayWindow(t *testing.T) {
	s := Schedule{Enabled: true, StartHour: 9, EndHour: 18}
	assert.False(t, s.ActiveAt(at(8)))
	assert.True(t, s.ActiveAt(at(9)))
	assert.True(t, s.ActiveAt(at(17)))
	assert.False(t, s.ActiveAt(at(18)))
}

func TestSchedule_OvernightWindow(t *testing.T) {
	s := Schedule{Enabled: true, StartHour: 22, EndHour: 6}
	assert.True(t, s.ActiveAt(at(23)))
	assert.True(t, s.ActiveAt(at(2)))
	assert.False(t, s.ActiveAt(at(12)))
}

func TestSchedule_Weekdays(t *testing.T) {
	s := Schedule{Enabled: true, StartHour: 0, EndHour: 24, Weekdays: []time.Weekday{time.Saturday, time.Sunday}}
	assert.False(t, s.ActiveAt(at(12))) // Monday
	sat := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	assert.True(t, s.ActiveAt(sat))
}
