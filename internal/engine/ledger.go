package engine

import (
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// LabelAns names the running value when no numbered label exists yet.
const LabelAns = "ANS"

// Label returns the numbered label "x<n>".
func Label(n int) string {
	return "x" + strconv.Itoa(n)
}

// Entry is a pending binary operation waiting for its right operand.
type Entry struct {
	LeftLabel  string
	Left       *apd.Decimal
	Op         Operator
	RightLabel string

	// IsFinal is always false; nothing reads it.
	IsFinal bool
}

// Expression renders the entry as "<left> <symbol> <right label>" with the
// left operand at full stored precision.
func (e Entry) Expression() string {
	return Literal(e.Left) + " " + e.Op.Symbol() + " " + e.RightLabel
}

// DisplayExpression is Expression with the left operand display-formatted.
func (e Entry) DisplayExpression() string {
	return FormatDisplay(e.Left) + " " + e.Op.Symbol() + " " + e.RightLabel
}

// Ledger is the ordered stack of pending entries. Entries are pushed and
// popped at the tail only.
type Ledger struct {
	entries []Entry
	next    int
}

// NewLedger returns an empty ledger with the label counter at 1.
func NewLedger() *Ledger {
	return &Ledger{next: 1}
}

// Len returns the number of pending entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Next returns the label counter.
func (l *Ledger) Next() int {
	return l.next
}

// CurrentLabel names the live value: "ANS" while the ledger is empty,
// otherwise the label of the most recent result slot.
func (l *Ledger) CurrentLabel() string {
	if len(l.entries) == 0 {
		return LabelAns
	}
	return Label(l.next - 1)
}

// Push records left op <placeholder> and advances the label counter.
func (l *Ledger) Push(left *apd.Decimal, op Operator) Entry {
	e := Entry{
		LeftLabel:  l.CurrentLabel(),
		Left:       left,
		Op:         op,
		RightLabel: Label(l.next),
	}
	l.entries = append(l.entries, e)
	l.next++
	return e
}

// Pop removes and returns the tail entry.
func (l *Ledger) Pop() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	last := len(l.entries) - 1
	e := l.entries[last]
	l.entries[last] = Entry{}
	l.entries = l.entries[:last]
	return e, true
}

// Resolved steps the label counter back after an entry has been computed.
func (l *Ledger) Resolved() {
	l.next--
}

// Entries returns a copy of the pending entries, oldest first.
func (l *Ledger) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Reset drops every entry and restarts labels at 1.
func (l *Ledger) Reset() {
	l.entries = nil
	l.next = 1
}
