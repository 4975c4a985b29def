package calculator

import (
	"errors"
	"fmt"
	"strings"

	"calcsession/internal/engine"
)

// ErrUnknownKey is returned by ParseKey for input outside the keypad.
var ErrUnknownKey = errors.New("unknown key")

// Key is one validated keypad press.
type Key struct {
	// Name is the canonical key name used in logs, spans and metrics.
	Name  string
	apply func(*engine.Session) error
}

// Apply runs the key against s.
func (k Key) Apply(s *engine.Session) error {
	return k.apply(s)
}

// ParseKey maps a raw keypad label onto a session command. Digits, ".",
// operator symbols (with "*" and "/" aliases) and "=" are taken literally;
// word keys are case-insensitive.
func ParseKey(raw string) (Key, error) {
	k := strings.TrimSpace(raw)

	if len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
		return Key{Name: k, apply: func(s *engine.Session) error { return s.AppendDigit(k) }}, nil
	}
	if op, err := engine.ParseOperator(k); err == nil {
		return Key{Name: op.Symbol(), apply: func(s *engine.Session) error { return s.StartBinaryOp(op) }}, nil
	}

	switch strings.ToLower(k) {
	case ".", ",":
		return command(".", (*engine.Session).AppendDecimalPoint), nil
	case "=", "equals":
		return command("=", (*engine.Session).PressEquals), nil
	case "del", "delete", "⌫":
		return command("del", (*engine.Session).DeleteLast), nil
	case "neg", "±", "+/-":
		return command("neg", (*engine.Session).ToggleSign), nil
	case "c", "ac", "clear":
		return command("clear", (*engine.Session).Reset), nil
	case "sin":
		return unary(engine.Sin), nil
	case "cos":
		return unary(engine.Cos), nil
	case "deg":
		return command("deg", func(s *engine.Session) { s.SetDegrees(true) }), nil
	case "rad":
		return command("rad", func(s *engine.Session) { s.SetDegrees(false) }), nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, raw)
}

// ParseKeys validates every key before any is applied.
func ParseKeys(raw []string) ([]Key, error) {
	keys := make([]Key, 0, len(raw))
	for i, r := range raw {
		k, err := ParseKey(r)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func command(name string, fn func(*engine.Session)) Key {
	return Key{Name: name, apply: func(s *engine.Session) error {
		fn(s)
		return nil
	}}
}

func unary(op engine.Operator) Key {
	return Key{Name: op.String(), apply: func(s *engine.Session) error { return s.ApplyUnary(op) }}
}
