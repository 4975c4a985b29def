package engine

import "errors"

var (
	// ErrDivisionByZero is returned when the divisor of a division is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrEvaluation covers every other arithmetic failure: malformed
	// operands, unknown operators, trigonometric series that do not converge.
	ErrEvaluation = errors.New("evaluation failed")

	// ErrInvalidDigit is returned by AppendDigit for anything but 0-9.
	ErrInvalidDigit = errors.New("invalid digit")
)

// Status tags shown while the session is in Error mode.
const (
	TagDivByZero = "Div by 0"
	TagError     = "Error"
)

// tagFor maps an evaluation error to its status tag.
func tagFor(err error) string {
	if errors.Is(err, ErrDivisionByZero) {
		return TagDivByZero
	}
	return TagError
}
