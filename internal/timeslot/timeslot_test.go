package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	m, err := ParseClock("19:15")
	require.NoError(t, err)
	assert.Equal(t, 19*60+15, m)

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	_, err = ParseClock("7pm")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.June, d.Month())

	_, err = ParseDate("01/06/2024")
	assert.Error(t, err)
}

func TestAddMinutes_WrapsMidnight(t *testing.T) {
	got, err := AddMinutes("23:30", 90)
	require.NoError(t, err)
	assert.Equal(t, "01:00", got)

	got, err = AddMinutes("19:00", 90)
	require.NoError(t, err)
	assert.Equal(t, "20:30", got)
}

func TestMinutesUntil(t *testing.T) {
	cases := []struct {
		from, to string
		want     int
	}{
		{"20:20", "21:00", 40},
		{"20:40", "21:00", 20},
		{"21:00", "21:00", 0},
		// crossing midnight: negative raw delta becomes +1440
		{"23:50", "00:20", 30},
		{"22:00", "01:00", 180},
	}
	for _, tc := range cases {
		got, err := MinutesUntil(tc.from, tc.to)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "from %s to %s", tc.from, tc.to)
	}
}

func TestInWindow(t *testing.T) {
	in, err := InWindow("20:00", "21:30", "20:45")
	require.NoError(t, err)
	assert.True(t, in)

	in, err = InWindow("20:00", "21:30", "21:30")
	require.NoError(t, err)
	assert.False(t, in, "end bound is exclusive")

	// window wrapping past midnight
	in, err = InWindow("23:00", "01:00", "23:30")
	require.NoError(t, err)
	assert.True(t, in)

	in, err = InWindow("23:00", "01:00", "00:30")
	require.NoError(t, err)
	assert.True(t, in)

	in, err = InWindow("23:00", "01:00", "02:00")
	require.NoError(t, err)
	assert.False(t, in)
}

func TestFormatClock_Normalises(t *testing.T) {
	assert.Equal(t, "01:00", FormatClock(25*60))
	assert.Equal(t, "23:00", FormatClock(-60))
}

func TestClockOfDateOf(t *testing.T) {
	ts := time.Date(2024, 6, 1, 19, 5, 0, 0, time.UTC)
	assert.Equal(t, "19:05", ClockOf(ts))
	assert.Equal(t, "2024-06-01", DateOf(ts))
}
