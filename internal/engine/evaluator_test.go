package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
)

func mustParse(t testing.TB, s string) *apd.Decimal {
	t.Helper()
	d, err := ParseDecimal(s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return d
}

func TestEvaluatorApply(t *testing.T) {
	e := NewEvaluator(DefaultContext)

	tests := []struct {
		a, b string
		op   Operator
		want string
	}{
		{a: "1", op: Add, b: "2", want: "3"},
		{a: "0.1", op: Add, b: "0.2", want: "0.3"},
		{a: "0.1", op: Sub, b: "0.3", want: "-0.2"},
		{a: "1", op: Sub, b: "1", want: "0"},
		{a: "1.50", op: Mul, b: "2", want: "3.00"},
		{a: "-4", op: Mul, b: "2.5", want: "-10.0"},
		{a: "6", op: Div, b: "3", want: "2"},
		{a: "1", op: Div, b: "4", want: "0.25"},
		{a: "60", op: Div, b: "3", want: "20"},
		{a: "10", op: Div, b: "-4", want: "-2.5"},
	}

	for _, tc := range tests {
		name := tc.a + " " + tc.op.Symbol() + " " + tc.b
		t.Run(name, func(t *testing.T) {
			got, err := e.Apply(mustParse(t, tc.a), tc.op, mustParse(t, tc.b))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s := Literal(got); s != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, s)
			}
		})
	}
}

func TestEvaluatorDivisionUsesFullPrecision(t *testing.T) {
	e := NewEvaluator(DefaultContext)

	got, err := e.Apply(apd.New(1, 0), Div, apd.New(3, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0." + strings.Repeat("3", DefaultPrecision)
	if s := Literal(got); s != want {
		t.Fatalf("expected %s, got %s", want, s)
	}

	got, err = e.Apply(apd.New(2, 0), Div, apd.New(3, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = "0." + strings.Repeat("6", DefaultPrecision-1) + "7"
	if s := Literal(got); s != want {
		t.Fatalf("expected half-even rounding to %s, got %s", want, s)
	}
}

func TestEvaluatorDivisionByZero(t *testing.T) {
	e := NewEvaluator(DefaultContext)

	for _, zero := range []string{"0", "0.000", "-0"} {
		_, err := e.Apply(apd.New(1, 0), Div, mustParse(t, zero))
		if !errors.Is(err, ErrDivisionByZero) {
			t.Fatalf("expected ErrDivisionByZero for divisor %q, got %v", zero, err)
		}
	}
}

func TestEvaluatorRejectsNonBinaryOperator(t *testing.T) {
	e := NewEvaluator(DefaultContext)

	_, err := e.Apply(apd.New(1, 0), Sin, apd.New(1, 0))
	if !errors.Is(err, ErrEvaluation) {
		t.Fatalf("expected ErrEvaluation, got %v", err)
	}
}

func TestEvaluatorLowPrecisionContext(t *testing.T) {
	e := NewEvaluator(Context{Precision: 5, Rounding: apd.RoundHalfEven})

	tests := []struct {
		a, b string
		op   Operator
		want string
	}{
		{a: "1", op: Div, b: "3", want: "0.33333"},
		{a: "2", op: Div, b: "3", want: "0.66667"},
		{a: "1.00005", op: Add, b: "0", want: "1.0000"},
		{a: "1.00015", op: Add, b: "0", want: "1.0002"},
	}

	for _, tc := range tests {
		got, err := e.Apply(mustParse(t, tc.a), tc.op, mustParse(t, tc.b))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s := Literal(got); s != tc.want {
			t.Fatalf("%s %s %s: expected %s, got %s", tc.a, tc.op.Symbol(), tc.b, tc.want, s)
		}
	}
}

func TestEvaluatorPi(t *testing.T) {
	e := NewEvaluator(DefaultContext)

	pi, err := e.Pi()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const prefix = "3.14159265358979323846264338327950288419716939937510"
	if s := Literal(pi); !strings.HasPrefix(s, prefix) {
		t.Fatalf("expected π to start with %s, got %s", prefix, s)
	}
	if n := pi.NumDigits(); n != DefaultPrecision {
		t.Fatalf("expected %d digits, got %d", DefaultPrecision, n)
	}

	small, err := NewEvaluator(Context{Precision: 5, Rounding: apd.RoundHalfEven}).Pi()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := Literal(small); s != "3.1416" {
		t.Fatalf("expected 3.1416, got %s", s)
	}
}

func TestEvaluatorUnaryDegrees(t *testing.T) {
	e := NewEvaluator(DefaultContext)

	tests := []struct {
		op    Operator
		angle string
		want  string
	}{
		{op: Sin, angle: "0", want: "0"},
		{op: Sin, angle: "30", want: "0.5"},
		{op: Sin, angle: "90", want: "1"},
		{op: Sin, angle: "-90", want: "-1"},
		{op: Sin, angle: "360", want: "0"},
		{op: Sin, angle: "750", want: "0.5"},
		{op: Cos, angle: "0", want: "1"},
		{op: Cos, angle: "60", want: "0.5"},
		{op: Cos, angle: "90", want: "0"},
		{op: Cos, angle: "180", want: "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.op.String()+"("+tc.angle+")", func(t *testing.T) {
			got, err := e.Unary(tc.op, mustParse(t, tc.angle), true)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s := FormatDisplay(got); s != tc.want {
				t.Fatalf("expected %s, got %s (full %s)", tc.want, s, Literal(got))
			}
		})
	}
}

func TestEvaluatorUnaryRadians(t *testing.T) {
	e := NewEvaluator(DefaultContext)

	got, err := e.Unary(Sin, apd.New(1, 0), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := Literal(got); !strings.HasPrefix(s, "0.8414709848078965") {
		t.Fatalf("expected sin(1) ≈ 0.8414709848078965, got %s", s)
	}
	if s := FormatDisplay(got); s != "0.841470984808" {
		t.Fatalf("expected display 0.841470984808, got %s", s)
	}
}

func TestEvaluatorPythagoreanIdentity(t *testing.T) {
	e := NewEvaluator(DefaultContext)
	c := DefaultContext.working(0)

	for _, s := range []string{"1.2345", "-7", "100.5", "0.001"} {
		x := mustParse(t, s)
		sin, err := e.Sin(x)
		if err != nil {
			t.Fatalf("sin(%s): %v", s, err)
		}
		cos, err := e.Cos(x)
		if err != nil {
			t.Fatalf("cos(%s): %v", s, err)
		}

		sum := new(apd.Decimal)
		sq := new(apd.Decimal)
		c.Mul(sum, sin, sin)
		c.Mul(sq, cos, cos)
		c.Add(sum, sum, sq)
		c.Sub(sum, sum, apd.New(1, 0))
		c.Abs(sum, sum)

		if sum.Cmp(apd.New(1, -95)) > 0 {
			t.Fatalf("sin²+cos² of %s off by %s", s, sum.Text('g'))
		}
	}
}

func TestEvaluatorRejectsHugeAngle(t *testing.T) {
	e := NewEvaluator(Context{Precision: 10, Rounding: apd.RoundHalfEven})
	huge := mustParse(t, "1"+strings.Repeat("0", 101))

	_, err := e.Sin(huge)
	if !errors.Is(err, ErrEvaluation) {
		t.Fatalf("expected ErrEvaluation, got %v", err)
	}
}
