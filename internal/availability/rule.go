package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidWindow       = errors.New("rule start must be before end")
	ErrInvalidSlotDuration = errors.New("slot duration must be positive")
)

// TimeOfDay is minutes from midnight, clinic-local.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On anchors the time of day to a calendar day, in that day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, day.Location())
}

// RecurringRule is a weekly repeating availability window for a doctor.
type RecurringRule struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	Weekday     time.Weekday
	Start       TimeOfDay
	End         TimeOfDay
	SlotMinutes int
}

func (r RecurringRule) Validate() error {
	if r.Start >= r.End {
		return ErrInvalidWindow
	}
	if r.SlotMinutes <= 0 {
		return ErrInvalidSlotDuration
	}
	return nil
}

// DateOverride pins availability for one calendar date. When any override
// exists for a date it fully replaces the recurring rules for that weekday;
// Available=false blanks the window.
type DateOverride struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	Date        time.Time // midnight of the overridden day
	Start       TimeOfDay
	End         TimeOfDay
	SlotMinutes int
	Available   bool
}

func (o DateOverride) Validate() error {
	if o.Start >= o.End {
		return ErrInvalidWindow
	}
	if o.SlotMinutes <= 0 {
		return ErrInvalidSlotDuration
	}
	return nil
}

// RuleSet is one doctor's full availability configuration.
type RuleSet struct {
	Recurring []RecurringRule
	Overrides []DateOverride
}

type window struct {
	start       time.Time
	end         time.Time
	slotMinutes int
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// windowsFor resolves the effective availability windows for one calendar day.
func (rs RuleSet) windowsFor(day time.Time) []window {
	var wins []window

	overridden := false
	for _, o := range rs.Overrides {
		if !sameDate(o.Date, day) {
			continue
		}
		overridden = true
		if !o.Available {
			continue
		}
		wins = append(wins, window{
			start:       o.Start.On(day),
			end:         o.End.On(day),
			slotMinutes: o.SlotMinutes,
		})
	}
	if overridden {
		return wins
	}

	for _, r := range rs.Recurring {
		if r.Weekday != day.Weekday() {
			continue
		}
		wins = append(wins, window{
			start:       r.Start.On(day),
			end:         r.End.On(day),
			slotMinutes: r.SlotMinutes,
		})
	}
	return wins
}
