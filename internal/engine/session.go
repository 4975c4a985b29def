package engine

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/apd/v3"
)

// Mode is the state of a Session.
type Mode int

const (
	// Entering: the buffer holds keystrokes in progress.
	Entering Mode = iota
	// Result: the buffer holds a computed value; the next digit starts over.
	Result
	// Error: the buffer is frozen until a reset.
	Error
)

func (m Mode) String() string {
	switch m {
	case Entering:
		return "entering"
	case Result:
		return "result"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Angle modes reported by AngleMode.
const (
	AngleDegrees = "DEG"
	AngleRadians = "RAD"
)

// Session is one calculator: input buffer, pending-operation ledger and mode.
// It is not safe for concurrent use; callers issue one command at a time.
type Session struct {
	eval    *Evaluator
	buf     Buffer
	ledger  *Ledger
	mode    Mode
	tag     string
	cause   error
	degrees bool
}

// NewSession returns an empty session in degree mode.
func NewSession(eval *Evaluator) *Session {
	if eval == nil {
		eval = NewEvaluator(DefaultContext)
	}
	return &Session{
		eval:    eval,
		ledger:  NewLedger(),
		degrees: true,
	}
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Tag returns the status tag while in Error mode, "" otherwise.
func (s *Session) Tag() string {
	return s.tag
}

// Cause returns the failure that put the session into Error mode.
func (s *Session) Cause() error {
	return s.cause
}

// Buffer returns the raw input buffer text.
func (s *Session) Buffer() string {
	return s.buf.String()
}

// Pending returns the number of unresolved ledger entries.
func (s *Session) Pending() int {
	return s.ledger.Len()
}

// Entries returns the pending ledger entries, oldest first.
func (s *Session) Entries() []Entry {
	return s.ledger.Entries()
}

// Reset discards the ledger, buffer and error and returns to Entering. The
// angle mode is kept.
func (s *Session) Reset() {
	s.ledger.Reset()
	s.buf.Clear()
	s.mode = Entering
	s.tag = ""
	s.cause = nil
}

// AppendDigit types one digit. "." is treated as AppendDecimalPoint.
func (s *Session) AppendDigit(d string) error {
	if d == "." {
		s.AppendDecimalPoint()
		return nil
	}
	if len(d) != 1 || d[0] < '0' || d[0] > '9' {
		return fmt.Errorf("%w: %q", ErrInvalidDigit, d)
	}

	switch s.mode {
	case Error:
		s.Reset()
	case Result:
		s.buf.Clear()
		s.mode = Entering
	}
	s.buf.AppendDigit(d[0])
	return nil
}

// AppendDecimalPoint types ".". After a result it starts "0.".
func (s *Session) AppendDecimalPoint() {
	switch s.mode {
	case Error:
		s.Reset()
	case Result:
		s.buf.Set("0")
		s.mode = Entering
	}
	s.buf.AppendPoint()
}

// DeleteLast removes one character, clears a result entirely, or resets an
// error.
func (s *Session) DeleteLast() {
	switch s.mode {
	case Error:
		s.Reset()
	case Result:
		s.buf.Clear()
		s.mode = Entering
	default:
		s.buf.DeleteLast()
	}
}

// ToggleSign negates the buffer. A result becomes editable input.
func (s *Session) ToggleSign() {
	if s.mode == Error {
		return
	}
	s.mode = Entering
	s.buf.ToggleSign()
}

// CurrentValue parses the buffer; empty or malformed text is zero.
func (s *Session) CurrentValue() *apd.Decimal {
	return s.buf.Value()
}

// StartBinaryOp pushes "<current value> op x<n>" onto the ledger and clears
// the buffer for the right operand.
func (s *Session) StartBinaryOp(op Operator) error {
	if !op.IsBinary() {
		return fmt.Errorf("%w: %v is not a binary operator", ErrEvaluation, op)
	}
	if s.mode == Error {
		return nil
	}
	s.ledger.Push(s.CurrentValue(), op)
	s.buf.Clear()
	s.mode = Entering
	return nil
}

// PressEquals resolves the most recent ledger entry against the current
// value. Earlier entries stay pending for later presses.
func (s *Session) PressEquals() {
	if s.mode == Error {
		return
	}
	e, ok := s.ledger.Pop()
	if !ok {
		return
	}

	result, err := s.eval.Apply(e.Left, e.Op, s.CurrentValue())
	if err != nil {
		s.fail(fmt.Errorf("resolve %s: %w", e.Expression(), err))
		return
	}

	s.buf.Set(Literal(result))
	s.mode = Result
	s.ledger.Resolved()
}

// ApplyUnary replaces the current value with sin or cos of it.
func (s *Session) ApplyUnary(op Operator) error {
	if !op.IsUnary() {
		return fmt.Errorf("%w: %v is not a unary operator", ErrEvaluation, op)
	}
	if s.mode == Error {
		return nil
	}
	result, err := s.eval.Unary(op, s.CurrentValue(), s.degrees)
	if err != nil {
		s.fail(fmt.Errorf("%v(%s): %w", op, s.buf.String(), err))
		return nil
	}
	s.buf.Set(StripLiteral(result))
	s.mode = Result
	return nil
}

// SetDegrees switches between degree and radian input for ApplyUnary.
func (s *Session) SetDegrees(degrees bool) {
	s.degrees = degrees
}

// AngleMode returns "DEG" or "RAD".
func (s *Session) AngleMode() string {
	if s.degrees {
		return AngleDegrees
	}
	return AngleRadians
}

func (s *Session) fail(err error) {
	s.mode = Error
	s.tag = tagFor(err)
	s.cause = err
}

// Lines renders the display, oldest line first: one "label = expression"
// line per pending entry, then the live value. In Error mode the display is
// the single line "Status = <tag>".
func (s *Session) Lines() []string {
	if s.mode == Error {
		return []string{"Status = " + s.tag}
	}

	lines := make([]string, 0, s.ledger.Len()+1)
	for _, e := range s.ledger.entries {
		lines = append(lines, e.LeftLabel+" = "+e.DisplayExpression())
	}
	return append(lines, s.ledger.CurrentLabel()+" = "+s.liveValue())
}

func (s *Session) liveValue() string {
	text := s.buf.String()
	switch {
	case text == "":
		return "0"
	case s.mode == Result:
		return FormatDisplay(s.buf.Value())
	default:
		return text
	}
}

// Snapshot is a read-only view of a session for outer layers.
type Snapshot struct {
	// Lines are newest first, the order a keypad display shows them.
	Lines     []string
	AngleMode string
	Mode      Mode
	Tag       string
	Buffer    string
	Pending   int
}

// Snapshot captures the current display and state.
func (s *Session) Snapshot() Snapshot {
	lines := s.Lines()
	slices.Reverse(lines)
	return Snapshot{
		Lines:     lines,
		AngleMode: s.AngleMode(),
		Mode:      s.mode,
		Tag:       s.tag,
		Buffer:    s.buf.String(),
		Pending:   s.ledger.Len(),
	}
}
