package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentRoundsToMinorUnits(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		pct    float64
		want   string
	}{
		{name: "offer", amount: 100000, pct: -20, want: "800.00"},
		{name: "peak", amount: 100000, pct: 15, want: "1150.00"},
		{name: "fractional", amount: 99999, pct: -12.5, want: "874.99"},
		{name: "half rounds away from zero", amount: 101, pct: -50, want: "0.51"},
		{name: "full discount", amount: 250000, pct: -100, want: "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Must(tc.amount, "INR").Percent(tc.pct).String())
		})
	}
}

func TestFromDecimalString(t *testing.T) {
	m, err := FromDecimalString("1800.5", "inr")
	require.NoError(t, err)
	assert.Equal(t, int64(180050), m.Amount)
	assert.Equal(t, "INR", m.Currency)

	_, err = FromDecimalString("abc", "INR")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromDecimalString("10", "RUPEE")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestFromDecimalStringBounds(t *testing.T) {
	cases := map[string]int64{
		"0":                0,
		"-12.3":            -1230,
		"+7":               700,
		"1800.555":         180056,
		"19.994":           1999,
		"9999999999999.99": 999999999999999,
		" 2000.00 ":        200000,
	}
	for raw, want := range cases {
		m, err := FromDecimalString(raw, "INR")
		require.NoError(t, err, raw)
		assert.Equal(t, want, m.Amount, raw)
	}

	for _, raw := range []string{"1e20", "1e2", "10000000000000", "12.", ".5", "1,000", "--1", "NaN", "Inf", "0x10"} {
		_, err := FromDecimalString(raw, "INR")
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
	}
}

func TestArithmeticChecksCurrency(t *testing.T) {
	_, err := Must(100, "INR").Add(Must(100, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	sum, err := Sum("INR", Must(150, "INR"), Must(250, "INR"))
	require.NoError(t, err)
	assert.Equal(t, "4.00", sum.String())

	assert.Equal(t, "0.00", Must(-300, "INR").ClampZero().String())
	assert.Equal(t, "-3.00", Must(-300, "INR").String())
}

func TestJSONUsesDecimalAmounts(t *testing.T) {
	raw, err := json.Marshal(Must(200000, "INR"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"2000.00","currency":"INR"}`, string(raw))

	var back Money
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, Must(200000, "INR"), back)
}
