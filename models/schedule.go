package models

import "time"

// Schedule restricts when notifications may be delivered. Jobs that land
// outside the window are dropped, not deferred.
type Schedule struct {
	Enabled   bool `yaml:"enabled" env-default:"true"`
	StartHour int  `yaml:"start_hour" env-default:"0"`
	// EndHour is exclusive; 24 means until midnight. An EndHour below
	// StartHour makes the window wrap overnight (e.g. 22 to 6).
	EndHour int `yaml:"end_hour" env-default:"24"`
	// Weekdays to deliver on; empty means every day.
	Weekdays []time.Weekday `yaml:"weekdays"`
}

// ActiveAt reports whether notifications may be sent at t.
func (s Schedule) ActiveAt(t time.Time) bool {
	if !s.Enabled {
		return false
	}
	if len(s.Weekdays) > 0 {
		ok := false
		for _, d := range s.Weekdays {
			if t.Weekday() == d {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	h := t.Hour()
	if s.StartHour <= s.EndHour {
		return h >= s.StartHour && h < s.EndHour
	}
	return h >= s.StartHour || h < s.EndHour
}
