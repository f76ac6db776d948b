package dto

import (
	"encoding/json"

	"staybook/internal/domain/shared/money"
)

// Decimal renders money as a JSON number with two decimals, e.g. 1800.00.
func Decimal(m money.Money) json.Number {
	return json.Number(m.String())
}

func decimalPtr(m *money.Money) *json.Number {
	if m == nil {
		return nil
	}
	d := Decimal(*m)
	return &d
}

// ParseDecimal converts a request amount into money of the given currency.
func ParseDecimal(n *json.Number, currency string) (*money.Money, error) {
	if n == nil {
		return nil, nil
	}
	m, err := money.FromDecimalString(n.String(), currency)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
