package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(9*60+30), tod)
	assert.Equal(t, "09:30", tod.String())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("9am")
	assert.Error(t, err)
}

func TestTimeOfDayOn(t *testing.T) {
	day := time.Date(2026, 9, 7, 17, 45, 12, 0, time.UTC)
	tod := TimeOfDay(10 * 60)

	at := tod.On(day)
	assert.Equal(t, time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC), at)
}

func TestRuleValidation(t *testing.T) {
	r := RecurringRule{Weekday: time.Monday, Start: 540, End: 720, SlotMinutes: 30}
	assert.NoError(t, r.Validate())

	r.End = r.Start
	assert.ErrorIs(t, r.Validate(), ErrInvalidWindow)

	r.End = 720
	r.SlotMinutes = 0
	assert.ErrorIs(t, r.Validate(), ErrInvalidSlotDuration)

	o := DateOverride{Start: 540, End: 480, SlotMinutes: 30}
	assert.ErrorIs(t, o.Validate(), ErrInvalidWindow)
}
