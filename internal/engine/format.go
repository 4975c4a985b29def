package engine

import (
	"github.com/cockroachdb/apd/v3"
)

// displayFractionDigits is how many fractional digits survive display
// rounding.
const displayFractionDigits = 12

// ParseDecimal parses a plain decimal literal such as "-12.5", "0." or ".5".
// Exponents, infinities and NaN are rejected.
func ParseDecimal(s string) (*apd.Decimal, error) {
	if !validLiteral(s) {
		return nil, &LiteralError{Literal: s}
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, &LiteralError{Literal: s, Err: err}
	}
	return normalizeZero(d), nil
}

// LiteralError reports a string that is not a plain decimal literal.
type LiteralError struct {
	Literal string
	Err     error
}

func (e *LiteralError) Error() string {
	if e.Err != nil {
		return "malformed decimal " + quote(e.Literal) + ": " + e.Err.Error()
	}
	return "malformed decimal " + quote(e.Literal)
}

// Unwrap lets errors.Is match ErrEvaluation.
func (e *LiteralError) Unwrap() error {
	return ErrEvaluation
}

func quote(s string) string {
	return `"` + s + `"`
}

// validLiteral accepts an optional leading "-", digits and at most one ".",
// with at least one digit somewhere.
func validLiteral(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	digits, points := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			points++
		default:
			return false
		}
	}
	return digits > 0 && points <= 1
}

// Literal renders d in plain notation with its stored scale.
func Literal(d *apd.Decimal) string {
	return d.Text('f')
}

// StripLiteral renders d in plain notation with trailing fractional zeros
// removed.
func StripLiteral(d *apd.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	r := new(apd.Decimal)
	r.Reduce(d)
	return r.Text('f')
}

// FormatDisplay rounds d half-up to 12 fractional digits, strips trailing
// zeros and renders it in plain notation. d itself is not modified.
func FormatDisplay(d *apd.Decimal) string {
	if d == nil {
		return "0"
	}
	if d.Exponent >= -displayFractionDigits {
		return StripLiteral(d)
	}

	// The quantized coefficient holds every integer digit plus 12 fractional
	// ones; size the precision so Quantize never overflows it.
	digits := adjusted(d) + displayFractionDigits + 2
	if digits < 1 {
		digits = 1
	}
	c := apd.BaseContext.WithPrecision(uint32(digits))
	c.Rounding = apd.RoundHalfUp

	r := new(apd.Decimal)
	if _, err := c.Quantize(r, d, -displayFractionDigits); err != nil {
		return StripLiteral(d)
	}
	return StripLiteral(r)
}
