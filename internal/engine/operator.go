package engine

import "fmt"

// Operator identifies a binary or unary calculator operation.
type Operator int

const (
	Add Operator = iota + 1
	Sub
	Mul
	Div
	Sin
	Cos
)

// Symbol returns the display symbol of a binary operator, or "?" for
// anything else.
func (o Operator) Symbol() string {
	switch o {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "×"
	case Div:
		return "÷"
	default:
		return "?"
	}
}

func (o Operator) String() string {
	switch o {
	case Sin:
		return "sin"
	case Cos:
		return "cos"
	default:
		return o.Symbol()
	}
}

// IsBinary reports whether o takes two operands.
func (o Operator) IsBinary() bool {
	return o >= Add && o <= Div
}

// IsUnary reports whether o is one of the trigonometric operators.
func (o Operator) IsUnary() bool {
	return o == Sin || o == Cos
}

// ParseOperator is the inverse of Symbol. The ASCII forms "*" and "/" are
// accepted as aliases of "×" and "÷".
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "+":
		return Add, nil
	case "-":
		return Sub, nil
	case "×", "*":
		return Mul, nil
	case "÷", "/":
		return Div, nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrEvaluation, s)
}
