package money

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned by Parse for malformed or over-precision input.
var ErrInvalidAmount = errors.New("invalid amount")

// scale is the fixed number of decimal places for all monetary values.
const scale = 2

// Money is an immutable fixed-point monetary value with two decimal places.
// All billing arithmetic goes through it; there is no construction from
// floating point.
type Money struct {
	d decimal.Decimal
}

// Zero returns the zero monetary value.
func Zero() Money {
	return Money{}
}

// FromDecimal truncates d to two decimal places.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d.Truncate(scale)}
}

// Parse reads a decimal string like "150.00" or "-3.5". Input with more than
// two decimal places is rejected rather than silently rounded.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -scale {
		return Money{}, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, scale)
	}
	return Money{d: d}, nil
}

// MustParse is Parse that panics on error. Intended for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

// MulPercent returns percent% of m, truncated to two decimal places.
// Truncation (not rounding) keeps repeated partial amounts from drifting
// above the whole they were taken from.
func (m Money) MulPercent(percent decimal.Decimal) Money {
	return Money{d: m.d.Mul(percent).Div(decimal.NewFromInt(100)).Truncate(scale)}
}

// Neg returns the negated value.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Cmp returns -1, 0 or 1 comparing m to other.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

func (m Money) Equal(other Money) bool       { return m.d.Cmp(other.d) == 0 }
func (m Money) LessThan(other Money) bool    { return m.d.Cmp(other.d) < 0 }
func (m Money) GreaterThan(other Money) bool { return m.d.Cmp(other.d) > 0 }

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// String renders the value with exactly two decimal places, e.g. "30.00".
// Parse(m.String()) always round-trips exactly.
func (m Money) String() string {
	return m.d.StringFixed(scale)
}

// MarshalJSON renders the value as a JSON string to avoid float precision
// loss in clients.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer so Money persists as a numeric column.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = Money{d: d.Truncate(scale)}
	return nil
}

// GormDataType tells GORM which column type to migrate to.
func (Money) GormDataType() string {
	return "numeric(14,2)"
}
