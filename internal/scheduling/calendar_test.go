package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayOf_SundayFirst(t *testing.T) {
	// 2026-10-18 - воскресенье
	sunday := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	for i, want := range Weekdays {
		assert.Equal(t, want, WeekdayOf(sunday.AddDate(0, 0, i)))
	}
	assert.Equal(t, "Sunday", Weekdays[0])
	assert.Equal(t, "Saturday", Weekdays[6])
}

func TestNormalizeWeekday(t *testing.T) {
	day, ok := NormalizeWeekday(" monday ")
	assert.True(t, ok)
	assert.Equal(t, "Monday", day)

	day, ok = NormalizeWeekday("FRIDAY")
	assert.True(t, ok)
	assert.Equal(t, "Friday", day)

	_, ok = NormalizeWeekday("Funday")
	assert.False(t, ok)
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, m)

	m, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, m)

	for _, bad := range []string{"", "9:3", "24:00", "12:60", "noon"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
