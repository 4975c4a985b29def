package engine

import "github.com/cockroachdb/apd/v3"

const (
	// DefaultPrecision is the number of significant digits kept internally.
	DefaultPrecision = 100

	// DisplayScale is the legacy display scale. It is not read anywhere:
	// display rounding uses displayFractionDigits.
	DisplayScale = 20
)

// Context is the fixed arithmetic configuration shared by all numeric
// operations of a session. It is a plain value so tests can run at a lower
// precision.
type Context struct {
	Precision uint32
	Rounding  apd.Rounder
}

// DefaultContext is 100 significant digits, round-half-even.
var DefaultContext = Context{
	Precision: DefaultPrecision,
	Rounding:  apd.RoundHalfEven,
}

// working returns a fresh apd context configured with c plus extra guard digits.
func (c Context) working(guard uint32) *apd.Context {
	ctx := apd.BaseContext.WithPrecision(c.Precision + guard)
	ctx.Rounding = c.Rounding
	return ctx
}
