package datalog

import (
	"strings"
)

// CompareValues compares two values and returns:
//
//	-1 if left < right
//	 0 if left == right
//	 1 if left > right
//
// Values of different kinds order by kind: Unbound < String < Number.
func CompareValues(left, right Value) int {
	if left.kind != right.kind {
		if left.kind < right.kind {
			return -1
		}
		return 1
	}

	switch left.kind {
	case KindString:
		return strings.Compare(left.str, right.str)
	case KindNumber:
		return compareFloats(left.num, right.num)
	default:
		return 0
	}
}

// Compare is the method form of CompareValues
func (v Value) Compare(other Value) int {
	return CompareValues(v, other)
}

func compareFloats(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// CompareTuples orders tuples lexicographically by position; a shorter tuple
// sorts first when it is a prefix of the longer one.
func CompareTuples(a, b Tuple) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := CompareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// ValuesEqual checks if two values are equal
func ValuesEqual(left, right Value) bool {
	return left.Equal(right)
}

// TuplesEqual checks positional equality of two tuples
func TuplesEqual(a, b Tuple) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
