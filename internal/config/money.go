package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Money is a decimal amount decoded from YAML via its literal text, so
// values like "0.1" or 2200.50 survive without a float round trip.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal for use in hand-built configs and tests.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// UnmarshalYAML implements yaml.Unmarshaler on the node's raw scalar text.
func (m *Money) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("money: expected scalar, got %v", value.Kind)
	}
	if value.Tag == "!!null" || value.Value == "" {
		m.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("money: %q is not a decimal amount", value.Value)
	}
	m.Decimal = d
	return nil
}
