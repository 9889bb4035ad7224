package fixedpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// Scale is the denominator of the fractional part: Frac counts 10^-18 units.
const Scale int64 = 1_000_000_000_000_000_000

const maxDecimals = 18

// FixedPoint is a decimal amount stored as Int + Frac/Scale.
// Invariant: 0 <= Frac < Scale. Negative values carry the sign on Int with
// Frac as a forward offset, so -0.25 is {Int: -1, Frac: 0.75 * Scale}.
type FixedPoint struct {
	Int  int64
	Frac int64
}

var Zero = FixedPoint{}

func Add(a, b FixedPoint) FixedPoint {
	whole := a.Int + b.Int
	frac := a.Frac + b.Frac
	if frac >= Scale {
		frac -= Scale
		whole++
	}
	return FixedPoint{Int: whole, Frac: frac}
}

func Sub(a, b FixedPoint) FixedPoint {
	whole := a.Int - b.Int
	frac := a.Frac - b.Frac
	if frac < 0 {
		frac += Scale
		whole--
	}
	return FixedPoint{Int: whole, Frac: frac}
}

func Neg(a FixedPoint) FixedPoint {
	if a.Frac == 0 {
		return FixedPoint{Int: -a.Int}
	}
	return FixedPoint{Int: -a.Int - 1, Frac: Scale - a.Frac}
}

func Abs(a FixedPoint) FixedPoint {
	if a.IsNegative() {
		return Neg(a)
	}
	return a
}

// Compare returns -1, 0 or 1 as a is less than, equal to or greater than b.
func Compare(a, b FixedPoint) int {
	if a.Int != b.Int {
		if a.Int < b.Int {
			return -1
		}
		return 1
	}
	if a.Frac != b.Frac {
		if a.Frac < b.Frac {
			return -1
		}
		return 1
	}
	return 0
}

func (f FixedPoint) IsZero() bool {
	return f.Int == 0 && f.Frac == 0
}

func (f FixedPoint) IsNegative() bool {
	return f.Int < 0
}

// One is the multiplicative identity, used as the implicit rate of the
// default currency.
func One() FixedPoint {
	return FixedPoint{Int: 1}
}

// FromDecimalString parses a plain decimal string such as "-12.50" with up to
// 18 fractional digits.
func FromDecimalString(input string) (FixedPoint, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return FixedPoint{}, ErrInvalidAmount
	}
	negative := false
	switch trimmed[0] {
	case '-':
		negative = true
		trimmed = trimmed[1:]
	case '+':
		trimmed = trimmed[1:]
	}
	parts := strings.SplitN(trimmed, ".", 2)
	wholePart := parts[0]
	fracDigits := len(parts) == 2 && parts[1] != ""
	if wholePart == "" && !fracDigits {
		return FixedPoint{}, ErrInvalidAmount
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if !isDigits(wholePart) {
		return FixedPoint{}, ErrInvalidAmount
	}
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if len(fracPart) > maxDecimals {
		return FixedPoint{}, ErrTooManyDecimals
	}
	if fracPart != "" && !isDigits(fracPart) {
		return FixedPoint{}, ErrInvalidAmount
	}
	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return FixedPoint{}, ErrInvalidAmount
	}
	frac := int64(0)
	if fracPart != "" {
		value, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return FixedPoint{}, ErrInvalidAmount
		}
		frac = value * pow10(maxDecimals-len(fracPart))
	}
	result := FixedPoint{Int: whole, Frac: frac}
	if negative {
		result = Neg(result)
	}
	return result, nil
}

// DisplayString renders the value rounded half-up to decimalPlaces digits.
// Rounding happens here only; stored values are never rounded.
func (f FixedPoint) DisplayString(decimalPlaces int) string {
	if decimalPlaces < 0 {
		decimalPlaces = 0
	}
	if decimalPlaces > maxDecimals {
		decimalPlaces = maxDecimals
	}
	magnitude := f
	negative := f.IsNegative()
	if negative {
		magnitude = Neg(f)
	}
	whole := magnitude.Int
	frac := magnitude.Frac
	digits := int64(0)
	if decimalPlaces == 0 {
		if frac >= Scale/2 {
			whole++
		}
	} else {
		unit := pow10(maxDecimals - decimalPlaces)
		digits = frac / unit
		if unit > 1 && frac%unit >= unit/2 {
			digits++
		}
		if digits == pow10(decimalPlaces) {
			digits = 0
			whole++
		}
	}
	formatted := strconv.FormatInt(whole, 10)
	if decimalPlaces > 0 {
		formatted = fmt.Sprintf("%s.%0*d", formatted, decimalPlaces, digits)
	}
	if negative && (whole != 0 || digits != 0) {
		return "-" + formatted
	}
	return formatted
}

// Decimal projects the value into shopspring decimal form. Derived and report
// values only; the authoritative balance arithmetic stays on Add/Sub.
func (f FixedPoint) Decimal() decimal.Decimal {
	return decimal.New(f.Int, 0).Add(decimal.New(f.Frac, -18))
}

// FromDecimal converts a shopspring decimal, truncating below 10^-18.
func FromDecimal(d decimal.Decimal) (FixedPoint, error) {
	return FromDecimalString(d.Truncate(maxDecimals).String())
}

func pow10(exponent int) int64 {
	result := int64(1)
	for i := 0; i < exponent; i++ {
		result *= 10
	}
	return result
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
