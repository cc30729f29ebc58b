package availability

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Interval is a half-open [Start, End) time window.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && iv.End.After(o.Start)
}

// Slot is a computed bookable window for a doctor. It is never persisted;
// every query derives slots fresh from the rule set and the current
// appointment rows.
type Slot struct {
	DoctorID  uuid.UUID
	Start     time.Time
	End       time.Time
	Available bool
}

// Expand partitions each day in [from, to] into fixed-width slots from the
// doctor's effective rules, marking a slot unavailable when it overlaps any
// busy interval. Days without an effective rule produce no slots. Slots are
// deduped by (start, end) and returned in start order.
func Expand(doctorID uuid.UUID, rules RuleSet, from, to time.Time, busy []Interval) []Slot {
	seen := make(map[Interval]bool)
	var slots []Slot

	for day := startOfDay(from); !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, win := range rules.windowsFor(day) {
			width := time.Duration(win.slotMinutes) * time.Minute
			for start := win.start; !start.Add(width).After(win.end); start = start.Add(width) {
				iv := Interval{Start: start, End: start.Add(width)}
				if seen[iv] {
					continue
				}
				seen[iv] = true
				slots = append(slots, Slot{
					DoctorID:  doctorID,
					Start:     iv.Start,
					End:       iv.End,
					Available: !overlapsAny(iv, busy),
				})
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Start.Equal(slots[j].Start) {
			return slots[i].End.Before(slots[j].End)
		}
		return slots[i].Start.Before(slots[j].Start)
	})

	return slots
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func overlapsAny(iv Interval, busy []Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}
