// Package booking holds the pure scheduling rules for welfare sessions: slot
// label parsing and date+slot occupancy detection.
package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/workdesk/internal/persistence"
)

// ErrInvalidSlot is returned for slot labels that do not match "HH:MM-HH:MM"
// or whose end does not come after the start.
var ErrInvalidSlot = errors.New("booking: invalid slot label")

// ErrInvalidDate is returned for dates that do not match "YYYY-MM-DD".
var ErrInvalidDate = errors.New("booking: invalid date")

// SlotWindow is the concrete time range a slot label denotes on a given date.
type SlotWindow struct {
	Start time.Time
	End   time.Time
}

// ParseSlot resolves a "HH:MM-HH:MM" slot label against a "YYYY-MM-DD" date
// into a UTC window.
func ParseSlot(date, slot string) (SlotWindow, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return SlotWindow{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	var startHour, startMin, endHour, endMin int
	if _, err := fmt.Sscanf(slot, "%d:%d-%d:%d", &startHour, &startMin, &endHour, &endMin); err != nil {
		return SlotWindow{}, fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	if startHour < 0 || startHour > 23 || endHour < 0 || endHour > 23 ||
		startMin < 0 || startMin > 59 || endMin < 0 || endMin > 59 {
		return SlotWindow{}, fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}

	start := day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
	end := day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute)
	if !end.After(start) {
		return SlotWindow{}, fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return SlotWindow{Start: start, End: end}, nil
}

// SlotTaken reports whether any existing session already occupies the
// date+slot pair.
func SlotTaken(sessions []persistence.TrainingSession, date, slot string) bool {
	for _, session := range sessions {
		if session.Date == date && session.Slot == slot {
			return true
		}
	}
	return false
}
