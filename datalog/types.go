package datalog

import (
	"strings"
)

// Tuple is an ordered row of values. It is used for base relation rows,
// intermediate query results and index keys alike.
type Tuple []Value

// Clone returns a copy that does not share storage with t
func (t Tuple) Clone() Tuple {
	out := make(Tuple, len(t))
	copy(out, t)
	return out
}

// Concat returns t followed by other in a fresh tuple
func (t Tuple) Concat(other Tuple) Tuple {
	out := make(Tuple, 0, len(t)+len(other))
	out = append(out, t...)
	return append(out, other...)
}

// Equal reports positional equality
func (t Tuple) Equal(other Tuple) bool {
	return TuplesEqual(t, other)
}

// String returns a representation like (1, Westmalle, 51.2)
func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Strings converts every value with Value.String
func (t Tuple) Strings() []string {
	out := make([]string, len(t))
	for i, v := range t {
		out[i] = v.String()
	}
	return out
}
