package engine

import (
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Buffer is the textual form of the number being typed or just computed.
// It is empty or a decimal literal with at most one decimal point.
type Buffer struct {
	text string
}

// String returns the raw buffer text.
func (b *Buffer) String() string {
	return b.text
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int {
	return len(b.text)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.text = ""
}

// Set replaces the buffer contents with s.
func (b *Buffer) Set(s string) {
	b.text = s
}

// AppendDigit appends d, dropping a lone leading "0" first.
func (b *Buffer) AppendDigit(d byte) {
	if b.text == "0" {
		b.text = ""
	}
	b.text += string(d)
}

// AppendPoint appends a decimal point, or "0." to an empty buffer. A second
// point is ignored.
func (b *Buffer) AppendPoint() {
	s := b.String()
	switch {
	case s == "":
		b.text = "0."
	case !strings.Contains(s, "."):
		b.text += "."
	}
}

// DeleteLast removes the last character. A remaining lone "-" is cleared too.
func (b *Buffer) DeleteLast() {
	s := b.String()
	if s == "" {
		return
	}
	s = s[:len(s)-1]
	if s == "-" {
		s = ""
	}
	b.Set(s)
}

// ToggleSign adds or removes a leading "-". Empty and "0" are left alone.
func (b *Buffer) ToggleSign() {
	s := b.String()
	switch {
	case s == "" || s == "0":
		return
	case strings.HasPrefix(s, "-"):
		b.Set(s[1:])
	default:
		b.Set("-" + s)
	}
}

// Value parses the buffer. An empty or malformed buffer is zero.
func (b *Buffer) Value() *apd.Decimal {
	d, err := ParseDecimal(b.String())
	if err != nil {
		return new(apd.Decimal)
	}
	return d
}
