package valueobject

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a value object representing a monetary amount as an integer
// count of minor units (e.g. centavos). It is immutable - all operations
// return new Money instances. The only places an amount may cross between
// major units and minor units are ParseMajor/NewFromDecimal (inbound) and
// Major/MajorString (outbound); everything in between is integer math, so
// a conversion can never be applied twice.
type Money struct {
	minor int64
}

// minorUnitsPerMajor is the scale of the minor unit (two fraction digits).
var minorUnitsPerMajor = decimal.NewFromInt(100)

// ErrTooManyFractionDigits is returned when a major-unit amount carries
// more precision than the minor unit can represent.
var ErrTooManyFractionDigits = errors.New("amount has more than two fraction digits")

// FromMinorUnits creates Money from a raw minor-unit count
func FromMinorUnits(minor int64) Money {
	return Money{minor: minor}
}

// NewFromDecimal creates Money from a major-unit decimal amount.
// Amounts with more than two fraction digits are rejected rather than
// silently truncated.
func NewFromDecimal(amount decimal.Decimal) (Money, error) {
	if amount.Exponent() < -2 {
		scaled := amount.Mul(minorUnitsPerMajor)
		if !scaled.IsInteger() {
			return Money{}, fmt.Errorf("%w: %s", ErrTooManyFractionDigits, amount.String())
		}
	}
	return Money{minor: amount.Mul(minorUnitsPerMajor).IntPart()}, nil
}

// ParseMajor creates Money from a major-unit decimal string (e.g. "1120.00")
func ParseMajor(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, errors.New("amount string is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string %q: %w", s, err)
	}
	return NewFromDecimal(d)
}

// MustParseMajor is ParseMajor that panics on error, for constants and tests
func MustParseMajor(s string) Money {
	m, err := ParseMajor(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money
func Zero() Money {
	return Money{}
}

// MinorUnits returns the raw minor-unit count
func (m Money) MinorUnits() int64 {
	return m.minor
}

// Major returns the amount in major units
func (m Money) Major() decimal.Decimal {
	return decimal.NewFromInt(m.minor).Div(minorUnitsPerMajor)
}

// MajorString returns the amount in major units with exactly two fraction
// digits, used for all external representations
func (m Money) MajorString() string {
	return m.Major().StringFixed(2)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.minor == 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.minor < 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.minor > 0
}

// Add returns a new Money with the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{minor: m.minor + other.minor}
}

// Sub returns a new Money with the difference of both amounts
func (m Money) Sub(other Money) Money {
	return Money{minor: m.minor - other.minor}
}

// Neg returns a new Money with the sign flipped
func (m Money) Neg() Money {
	return Money{minor: -m.minor}
}

// MulQty returns the amount multiplied by an integer quantity
func (m Money) MulQty(qty int64) Money {
	return Money{minor: m.minor * qty}
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, 1 if m > other
func (m Money) Cmp(other Money) int {
	switch {
	case m.minor < other.minor:
		return -1
	case m.minor > other.minor:
		return 1
	default:
		return 0
	}
}

// LessThan returns true if m is strictly less than other
func (m Money) LessThan(other Money) bool {
	return m.minor < other.minor
}

// GreaterThan returns true if m is strictly greater than other
func (m Money) GreaterThan(other Money) bool {
	return m.minor > other.minor
}

// InclusiveTaxPortion returns the tax portion contained in a tax-inclusive
// amount at the given percentage rate: amount * rate / (100 + rate),
// rounded half away from zero to the minor unit.
func (m Money) InclusiveTaxPortion(rate decimal.Decimal) Money {
	if rate.IsZero() {
		return Money{}
	}
	hundred := decimal.NewFromInt(100)
	portion := decimal.NewFromInt(m.minor).Mul(rate).Div(hundred.Add(rate))
	return Money{minor: portion.Round(0).IntPart()}
}

// PortionAtRate returns amount * rate / 100, rounded half away from zero
// to the minor unit
func (m Money) PortionAtRate(rate decimal.Decimal) Money {
	portion := decimal.NewFromInt(m.minor).Mul(rate).Div(decimal.NewFromInt(100))
	return Money{minor: portion.Round(0).IntPart()}
}

// String implements fmt.Stringer
func (m Money) String() string {
	return m.MajorString()
}

// MarshalJSON implements json.Marshaler; amounts serialize as major-unit
// decimal strings with two fraction digits
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.MajorString() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMajor(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer; amounts persist as BIGINT minor units
func (m Money) Value() (driver.Value, error) {
	return m.minor, nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		*m = Money{}
		return nil
	}
	switch v := value.(type) {
	case int64:
		*m = Money{minor: v}
		return nil
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("cannot scan %q into Money: %w", string(v), err)
		}
		*m = Money{minor: d.IntPart()}
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into Money", value)
	}
}
