package engine

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/apd/v3"
)

// trigGuard is the number of extra digits carried through π and the
// trigonometric series before rounding back to the context precision.
const trigGuard = 10

// maxSeriesTerms bounds every power series; exceeding it is a failure.
const maxSeriesTerms = 2000

// Evaluator applies calculator operations under a fixed Context. It is safe
// for concurrent use once constructed.
type Evaluator struct {
	ctx Context

	piOnce sync.Once
	pi     *apd.Decimal
	piErr  error
}

// NewEvaluator returns an Evaluator bound to ctx.
func NewEvaluator(ctx Context) *Evaluator {
	return &Evaluator{ctx: ctx}
}

// Context returns the arithmetic configuration of e.
func (e *Evaluator) Context() Context {
	return e.ctx
}

// Apply computes a op b for one of the four binary operators.
func (e *Evaluator) Apply(a *apd.Decimal, op Operator, b *apd.Decimal) (*apd.Decimal, error) {
	c := e.ctx.working(0)
	d := new(apd.Decimal)

	var err error
	switch op {
	case Add:
		_, err = c.Add(d, a, b)
	case Sub:
		_, err = c.Sub(d, a, b)
	case Mul:
		_, err = c.Mul(d, a, b)
	case Div:
		if b.IsZero() {
			return nil, fmt.Errorf("%s ÷ %s: %w", a.Text('f'), b.Text('f'), ErrDivisionByZero)
		}
		if _, err = c.Quo(d, a, b); err == nil {
			trimToIdeal(d, a.Exponent-b.Exponent)
		}
	default:
		return nil, fmt.Errorf("%w: %v is not a binary operator", ErrEvaluation, op)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	return normalizeZero(d), nil
}

// Unary computes sin or cos of x, interpreting x as degrees when degrees is
// set.
func (e *Evaluator) Unary(op Operator, x *apd.Decimal, degrees bool) (*apd.Decimal, error) {
	angle := x
	if degrees {
		var err error
		if angle, err = e.Radians(x); err != nil {
			return nil, err
		}
	}

	switch op {
	case Sin:
		return e.Sin(angle)
	case Cos:
		return e.Cos(angle)
	}
	return nil, fmt.Errorf("%w: %v is not a unary operator", ErrEvaluation, op)
}

// Radians converts x degrees into radians: x × π / 180.
func (e *Evaluator) Radians(x *apd.Decimal) (*apd.Decimal, error) {
	pi, err := e.Pi()
	if err != nil {
		return nil, err
	}

	c := e.ctx.working(0)
	d := new(apd.Decimal)
	if _, err := c.Mul(d, x, pi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	if _, err := c.Quo(d, d, apd.New(180, 0)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	return d, nil
}

// Pi returns π rounded to the context precision. The value is computed once
// per Evaluator.
func (e *Evaluator) Pi() (*apd.Decimal, error) {
	e.piOnce.Do(func() {
		var wide *apd.Decimal
		wide, e.piErr = machinPi(e.ctx.working(trigGuard))
		if e.piErr != nil {
			return
		}
		e.pi = new(apd.Decimal)
		if _, err := e.ctx.working(0).Round(e.pi, wide); err != nil {
			e.piErr = fmt.Errorf("%w: %v", ErrEvaluation, err)
		}
	})
	if e.piErr != nil {
		return nil, e.piErr
	}
	return new(apd.Decimal).Set(e.pi), nil
}

// trimToIdeal strips trailing zeros from d without taking its exponent above
// ideal, so 6/3 yields 2 and 1/4 yields 0.25.
func trimToIdeal(d *apd.Decimal, ideal int32) {
	if d.Exponent >= ideal {
		return
	}
	reduced := new(apd.Decimal)
	reduced.Reduce(d)
	if reduced.Exponent <= ideal {
		d.Set(reduced)
		return
	}
	// Too many zeros were removed; pad back to the ideal exponent.
	padded := new(apd.Decimal)
	c := apd.BaseContext.WithPrecision(uint32(d.NumDigits()) + 1)
	if _, err := c.Quantize(padded, reduced, ideal); err == nil {
		d.Set(padded)
	}
}

// normalizeZero clears the sign of a zero result so it never renders as "-0".
func normalizeZero(d *apd.Decimal) *apd.Decimal {
	if d.IsZero() {
		d.Negative = false
	}
	return d
}
