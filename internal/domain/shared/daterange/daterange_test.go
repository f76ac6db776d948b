package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	cases := map[string]string{
		"2025-09-29":                "2025-09-29",
		"2024-12-20T00:00:00.000Z":  "2024-12-20",
		"2024-12-20T23:30:00+05:30": "2024-12-20",
		" 2025-01-02 ":              "2025-01-02",
	}
	for raw, want := range cases {
		d, err := ParseDay(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, d.String())
	}

	_, err := ParseDay("29/09/2025")
	assert.ErrorIs(t, err, ErrInvalidDay)
	_, err = ParseDay("")
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestSpan(t *testing.T) {
	s, err := NewSpan(MustParseDay("2025-09-25"), MustParseDay("2025-09-30"))
	require.NoError(t, err)

	assert.Equal(t, 6, s.Len())
	assert.True(t, s.Contains(MustParseDay("2025-09-25")))
	assert.True(t, s.Contains(MustParseDay("2025-09-30")))
	assert.False(t, s.Contains(MustParseDay("2025-10-01")))
	days := s.Days()
	require.Len(t, days, 6)
	assert.Equal(t, "2025-09-27", days[2].String())

	_, err = NewSpan(MustParseDay("2025-09-30"), MustParseDay("2025-09-25"))
	assert.ErrorIs(t, err, ErrInvalidSpan)
	_, err = NewSpan(Day{}, MustParseDay("2025-09-25"))
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestDateRangeNights(t *testing.T) {
	dr, err := New(time.Date(2025, 9, 28, 15, 0, 0, 0, time.UTC), time.Date(2025, 10, 1, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 3, dr.Nights())
	nights := dr.NightSpan()
	assert.Equal(t, "2025-09-28", nights.From.String())
	assert.Equal(t, "2025-09-30", nights.To.String())

	_, err = New(dr.CheckOut, dr.CheckIn)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDayText(t *testing.T) {
	var d Day
	require.NoError(t, d.UnmarshalText([]byte("2025-02-03")))
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2025-02-03", string(text))
}
