package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidAmount    = errors.New("money: invalid decimal amount")
)

// Money keeps amounts in integer minor units (cents) to avoid floating point drift.
// Every price the platform shows has two decimals, so rounding to a minor unit
// is the same as rounding to 2 decimal places.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// maxMajorDigits keeps parsed amounts far inside the int64 range of minor units.
const maxMajorDigits = 13

// FromDecimalString parses "1800", "1800.5" or "-1800.50" into minor units.
// Fractions beyond two digits round half away from zero. Exponents and
// amounts with more than maxMajorDigits integer digits are rejected.
func FromDecimalString(raw string, currency string) (Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Money{}, ErrInvalidAmount
	}
	digits := raw
	negative := false
	if digits[0] == '-' || digits[0] == '+' {
		negative = digits[0] == '-'
		digits = digits[1:]
	}
	whole, frac, hasPoint := strings.Cut(digits, ".")
	if whole == "" || (hasPoint && frac == "") || len(whole) > maxMajorDigits || !isDigits(whole) || !isDigits(frac) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	frac += "000"
	amount := major*100 + int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	if frac[2] >= '5' {
		amount++
	}
	if negative {
		amount = -amount
	}
	return New(amount, currency)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Percent scales the amount by (100+pct)/100 and rounds half away from zero to a minor unit.
// Percent(-20) on 1000.00 yields 800.00.
func (m Money) Percent(pct float64) Money {
	scaled := float64(m.Amount) * (100 + pct) / 100
	return Money{Amount: roundMinor(scaled), Currency: m.Currency}
}

// ClampZero floors negative amounts at zero.
func (m Money) ClampZero() Money {
	if m.Amount < 0 {
		return Money{Amount: 0, Currency: m.Currency}
	}
	return m
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsNegative reports amounts below zero.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// String renders the amount as a fixed two-decimal string without currency.
func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

// MarshalJSON renders {"amount":"1800.00","currency":"INR"}.
func (m Money) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"amount":"`)
	buf.WriteString(m.String())
	buf.WriteString(`","currency":"`)
	buf.WriteString(m.Currency)
	buf.WriteString(`"}`)
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the MarshalJSON shape.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Amount == "" && raw.Currency == "" {
		*m = Money{}
		return nil
	}
	parsed, err := FromDecimalString(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sum adds values of the same currency; an empty slice returns zero in the given currency.
func Sum(currency string, values ...Money) (Money, error) {
	total := Money{Currency: currency}
	for _, v := range values {
		res, err := total.Add(v)
		if err != nil {
			return Money{}, err
		}
		total = res
	}
	return total, nil
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

func roundMinor(v float64) int64 {
	// 1e-9 absorbs binary representation error like 0.1*3 before rounding half away from zero.
	if v >= 0 {
		return int64(math.Floor(v + 0.5 + 1e-9))
	}
	return -int64(math.Floor(-v + 0.5 + 1e-9))
}
