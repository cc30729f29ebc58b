package availability

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTimeOfDay(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

// monday is 2026-09-07, a Monday.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func mondayMorningRules(t *testing.T, doctorID uuid.UUID) RuleSet {
	t.Helper()
	return RuleSet{
		Recurring: []RecurringRule{{
			ID:          uuid.New(),
			DoctorID:    doctorID,
			Weekday:     time.Monday,
			Start:       mustTimeOfDay(t, "09:00"),
			End:         mustTimeOfDay(t, "12:00"),
			SlotMinutes: 30,
		}},
	}
}

func slotStarts(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.Format("15:04"))
	}
	return out
}

func availableStarts(slots []Slot) []string {
	var out []string
	for _, s := range slots {
		if s.Available {
			out = append(out, s.Start.Format("15:04"))
		}
	}
	return out
}

func TestExpandWeeklyRule(t *testing.T) {
	doctorID := uuid.New()
	slots := Expand(doctorID, mondayMorningRules(t, doctorID), monday, monday, nil)

	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, slotStarts(slots))
	for _, s := range slots {
		assert.True(t, s.Available)
		assert.Equal(t, doctorID, s.DoctorID)
		assert.Equal(t, 30*time.Minute, s.End.Sub(s.Start))
	}
}

func TestExpandMasksBusyIntervals(t *testing.T) {
	doctorID := uuid.New()
	busy := []Interval{{
		Start: monday.Add(10 * time.Hour),
		End:   monday.Add(10*time.Hour + 30*time.Minute),
	}}

	slots := Expand(doctorID, mondayMorningRules(t, doctorID), monday, monday, busy)

	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, availableStarts(slots))
}

func TestExpandPartialOverlapMasksSlot(t *testing.T) {
	doctorID := uuid.New()
	// A 10:15-10:45 booking straddles both the 10:00 and 10:30 slots.
	busy := []Interval{{
		Start: monday.Add(10*time.Hour + 15*time.Minute),
		End:   monday.Add(10*time.Hour + 45*time.Minute),
	}}

	slots := Expand(doctorID, mondayMorningRules(t, doctorID), monday, monday, busy)

	assert.Equal(t, []string{"09:00", "09:30", "11:00", "11:30"}, availableStarts(slots))
}

func TestExpandNoRuleForDay(t *testing.T) {
	doctorID := uuid.New()
	tuesday := monday.AddDate(0, 0, 1)

	slots := Expand(doctorID, mondayMorningRules(t, doctorID), tuesday, tuesday, nil)

	assert.Empty(t, slots)
}

func TestExpandOverrideReplacesRecurring(t *testing.T) {
	doctorID := uuid.New()
	rules := mondayMorningRules(t, doctorID)
	rules.Overrides = []DateOverride{{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		Date:        monday,
		Start:       mustTimeOfDay(t, "14:00"),
		End:         mustTimeOfDay(t, "15:00"),
		SlotMinutes: 30,
		Available:   true,
	}}

	slots := Expand(doctorID, rules, monday, monday, nil)

	assert.Equal(t, []string{"14:00", "14:30"}, slotStarts(slots))
}

func TestExpandUnavailableOverrideBlanksDay(t *testing.T) {
	doctorID := uuid.New()
	rules := mondayMorningRules(t, doctorID)
	rules.Overrides = []DateOverride{{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		Date:        monday,
		Start:       mustTimeOfDay(t, "09:00"),
		End:         mustTimeOfDay(t, "12:00"),
		SlotMinutes: 30,
		Available:   false,
	}}

	slots := Expand(doctorID, rules, monday, monday, nil)

	assert.Empty(t, slots)
}

func TestExpandDedupesOverlappingRules(t *testing.T) {
	doctorID := uuid.New()
	rules := mondayMorningRules(t, doctorID)
	// A second identical recurring rule must not double count slots.
	rules.Recurring = append(rules.Recurring, rules.Recurring[0])

	slots := Expand(doctorID, rules, monday, monday, nil)

	assert.Len(t, slots, 6)
}

func TestExpandMultipleDays(t *testing.T) {
	doctorID := uuid.New()
	rules := mondayMorningRules(t, doctorID)
	rules.Recurring = append(rules.Recurring, RecurringRule{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		Weekday:     time.Tuesday,
		Start:       mustTimeOfDay(t, "09:00"),
		End:         mustTimeOfDay(t, "10:00"),
		SlotMinutes: 30,
	})

	slots := Expand(doctorID, rules, monday, monday.AddDate(0, 0, 2), nil)

	// Six Monday slots plus two Tuesday slots, nothing on Wednesday.
	require.Len(t, slots, 8)
	assert.True(t, slots[5].Start.Before(slots[6].Start))
}

func TestExpandDropsShortTail(t *testing.T) {
	doctorID := uuid.New()
	rules := RuleSet{
		Recurring: []RecurringRule{{
			ID:          uuid.New(),
			DoctorID:    doctorID,
			Weekday:     time.Monday,
			Start:       mustTimeOfDay(t, "09:00"),
			End:         mustTimeOfDay(t, "10:45"),
			SlotMinutes: 30,
		}},
	}

	slots := Expand(doctorID, rules, monday, monday, nil)

	// 10:30-11:00 would spill past the 10:45 window end.
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, slotStarts(slots))
}
