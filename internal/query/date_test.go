package query

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is Monday 2024-03-04 10:30 UTC.
var monday = time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)

func eod(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		phrase string
		want   time.Time
	}{
		{"today", eod(2024, 3, 4)},
		{"  TODAY ", eod(2024, 3, 4)},
		{"tomorrow", eod(2024, 3, 5)},
		{"yesterday", eod(2024, 3, 3)},
		{"next week", eod(2024, 3, 11)},
		{"next month", eod(2024, 4, 4)},
		{"in 1 day", eod(2024, 3, 5)},
		{"in 3 days", eod(2024, 3, 7)},
		{"In 2 Weeks", eod(2024, 3, 18)},
		{"in 1 month", eod(2024, 4, 3)},
		{"in 2 months", eod(2024, 5, 3)},
		{"next friday", eod(2024, 3, 8)},
		{"next sunday", eod(2024, 3, 10)},
		{"next tuesday", eod(2024, 3, 5)},
		{"2024-12-25", eod(2024, 12, 25)},
		{"2024-12-25 14:30", time.Date(2024, 12, 25, 14, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, err := ResolveDate(tt.phrase, monday)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestResolveDate_NextWeekdaySameDayIsAWeekAhead(t *testing.T) {
	got, err := ResolveDate("next monday", monday)
	require.NoError(t, err)
	assert.Equal(t, eod(2024, 3, 11), got)
	assert.NotEqual(t, EndOfDay(monday), got)
}

func TestResolveDate_RelativeMatchesExplicitDate(t *testing.T) {
	relative, err := ResolveDate("in 3 days", monday)
	require.NoError(t, err)

	explicit, err := ResolveDate(monday.AddDate(0, 0, 3).Format("2006-01-02"), monday)
	require.NoError(t, err)

	assert.True(t, relative.Equal(explicit))
}

func TestResolveDate_NextMonthClampsToMonthEnd(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	got, err := ResolveDate("next month", jan31)
	require.NoError(t, err)
	assert.Equal(t, eod(2024, 2, 29), got)

	dec15 := time.Date(2024, 12, 15, 9, 0, 0, 0, time.UTC)
	got, err = ResolveDate("next month", dec15)
	require.NoError(t, err)
	assert.Equal(t, eod(2025, 1, 15), got)
}

func TestResolveDate_UsesNowLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	now := time.Date(2024, 3, 4, 23, 0, 0, 0, tokyo)

	got, err := ResolveDate("tomorrow", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, 0, tokyo), got)

	got, err = ResolveDate("2024-03-10", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 0, tokyo), got)
}

func TestParseDatePhrase_Kinds(t *testing.T) {
	spec, err := ParseDatePhrase("in 4 weeks", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, DateSpec{Kind: KindRelative, Amount: 4, Unit: UnitWeek}, spec)

	spec, err = ParseDatePhrase("next Wednesday", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, KindNextWeekday, spec.Kind)
	assert.Equal(t, time.Wednesday, spec.Weekday)

	spec, err = ParseDatePhrase("2024-06-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, KindAbsolute, spec.Kind)
	assert.False(t, spec.HasTime)
}

func TestParseDatePhrase_Errors(t *testing.T) {
	for _, phrase := range []string{"", "   ", "someday maybe", "next blursday"} {
		t.Run(phrase, func(t *testing.T) {
			_, err := ParseDatePhrase(phrase, time.UTC)
			var parseErr *DateParseError
			require.True(t, errors.As(err, &parseErr), "got %v", err)
			assert.Equal(t, phrase, parseErr.Phrase)
		})
	}
}

func TestEndOfDay(t *testing.T) {
	in := time.Date(2024, 3, 4, 0, 0, 0, 123, time.UTC)
	assert.Equal(t, eod(2024, 3, 4), EndOfDay(in))
}
