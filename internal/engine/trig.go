package engine

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Sin returns sin(x) for x in radians, rounded to the context precision.
func (e *Evaluator) Sin(x *apd.Decimal) (*apd.Decimal, error) {
	return e.trig(x, 1)
}

// Cos returns cos(x) for x in radians, rounded to the context precision.
func (e *Evaluator) Cos(x *apd.Decimal) (*apd.Decimal, error) {
	return e.trig(x, 0)
}

// trig sums the Taylor series starting at the x^first term: first=1 gives
// sin, first=0 gives cos. The argument is reduced into [-π, π] first.
func (e *Evaluator) trig(x *apd.Decimal, first int64) (*apd.Decimal, error) {
	// Reducing a large angle modulo 2π loses as many digits as its integer
	// part has, so the working precision grows with the magnitude.
	mag := adjusted(x)
	if mag > int64(e.ctx.Precision)*10 {
		return nil, fmt.Errorf("%w: angle %s too large", ErrEvaluation, x.Text('g'))
	}
	guard := uint32(trigGuard)
	if mag > 0 {
		guard += uint32(mag)
	}
	c := e.ctx.working(guard)

	r, err := reduceAngle(c, x)
	if err != nil {
		return nil, err
	}

	x2 := new(apd.Decimal)
	if _, err := c.Mul(x2, r, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}

	term := apd.New(1, 0)
	if first == 1 {
		term.Set(r)
	}
	sum := new(apd.Decimal).Set(term)
	eps := -int64(c.Precision) - 2

	for n := first; ; n += 2 {
		if n > maxSeriesTerms {
			return nil, fmt.Errorf("%w: series did not converge for %s", ErrEvaluation, x.Text('g'))
		}
		// term_{k+1} = -term_k × x² / ((n+1)(n+2))
		if _, err := c.Mul(term, term, x2); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
		}
		if _, err := c.Quo(term, term, apd.New((n+1)*(n+2), 0)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
		}
		term.Negative = !term.Negative
		if _, err := c.Add(sum, sum, term); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
		}
		if term.IsZero() || adjusted(term) < eps {
			break
		}
	}

	d := new(apd.Decimal)
	if _, err := e.ctx.working(0).Round(d, sum); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	return normalizeZero(d), nil
}

// reduceAngle returns x - k·2π with k chosen so the result lies in [-π, π].
func reduceAngle(c *apd.Context, x *apd.Decimal) (*apd.Decimal, error) {
	pi, err := machinPi(c)
	if err != nil {
		return nil, err
	}
	twoPi := new(apd.Decimal)
	if _, err := c.Add(twoPi, pi, pi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}

	k := new(apd.Decimal)
	if _, err := c.Quo(k, x, twoPi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	if _, err := c.RoundToIntegralValue(k, k); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	if k.IsZero() {
		return new(apd.Decimal).Set(x), nil
	}

	r := new(apd.Decimal)
	if _, err := c.Mul(r, k, twoPi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	if _, err := c.Sub(r, x, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	return r, nil
}

// machinPi computes π = 16·atan(1/5) - 4·atan(1/239) at the precision of c.
func machinPi(c *apd.Context) (*apd.Decimal, error) {
	a, err := arctanInv(c, 5)
	if err != nil {
		return nil, err
	}
	b, err := arctanInv(c, 239)
	if err != nil {
		return nil, err
	}

	pi := new(apd.Decimal)
	if _, err := c.Mul(a, a, apd.New(16, 0)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	if _, err := c.Mul(b, b, apd.New(4, 0)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	if _, err := c.Sub(pi, a, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	return pi, nil
}

// arctanInv returns atan(1/n) = Σ (-1)^k / ((2k+1)·n^(2k+1)).
func arctanInv(c *apd.Context, n int64) (*apd.Decimal, error) {
	power := new(apd.Decimal)
	if _, err := c.Quo(power, apd.New(1, 0), apd.New(n, 0)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	n2 := apd.New(n*n, 0)
	sum := new(apd.Decimal).Set(power)
	term := new(apd.Decimal)
	eps := -int64(c.Precision) - 2

	for k := int64(1); k <= maxSeriesTerms; k++ {
		if _, err := c.Quo(power, power, n2); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
		}
		if _, err := c.Quo(term, power, apd.New(2*k+1, 0)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
		}
		if adjusted(term) < eps {
			return sum, nil
		}
		if k%2 == 1 {
			_, err := c.Sub(sum, sum, term)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
			}
		} else {
			_, err := c.Add(sum, sum, term)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrEvaluation, err)
			}
		}
	}
	return nil, fmt.Errorf("%w: atan(1/%d) did not converge", ErrEvaluation, n)
}

// adjusted is the exponent of the most significant digit of d.
func adjusted(d *apd.Decimal) int64 {
	if d.IsZero() {
		return int64(d.Exponent)
	}
	return d.NumDigits() + int64(d.Exponent) - 1
}
