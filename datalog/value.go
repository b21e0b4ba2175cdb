package datalog

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Kind tags the variant held by a Value
type Kind uint8

const (
	KindUnbound Kind = iota
	KindString
	KindNumber
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "unbound"
	}
}

// Value is a single cell of a tuple, a constant in a query, or a slot of an
// index key. It is one of String, Number or Unbound.
//
// Values are comparable with == except that Equal treats -0 and 0 as the same
// number, which the encoders also do.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// Unbound is the placeholder used at index key positions that are not shared
// between the two sides of a join.
var Unbound = Value{}

// String creates a string value. The input is NFC normalized so that values
// read from files and values typed into queries compare equal.
func String(s string) Value {
	return Value{kind: KindString, str: norm.NFC.String(s)}
}

// Number creates a numeric value
func Number(f float64) Value {
	if f == 0 {
		f = 0 // fold -0
	}
	return Value{kind: KindNumber, num: f}
}

// Int is shorthand for Number(float64(i))
func Int(i int64) Value { return Number(float64(i)) }

// ParseValue casts a raw cell to a Number when it parses as one and to a
// String otherwise. Empty cells stay strings.
func ParseValue(raw string) Value {
	if raw == "" {
		return String(raw)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f)
	}
	return String(raw)
}

// Kind returns the variant tag
func (v Value) Kind() Kind { return v.kind }

// IsUnbound reports whether v is the Unbound placeholder
func (v Value) IsUnbound() bool { return v.kind == KindUnbound }

// Str returns the string payload and whether v is a string
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload and whether v is a number
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Equal reports structural equality
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	default:
		return true
	}
}

// String renders the value the way it would appear in a result table
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return "_"
	}
}

// Literal renders the value as a query constant ("text" or 12.5)
func (v Value) Literal() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.String()
}

// Interface converts the value to a plain Go value (string, float64 or nil).
// Used at the edges: sqlite parameters, YAML/CSV output.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

// FromInterface converts a plain Go value back into a Value. Integers and
// floats become numbers, strings and byte slices become strings, nil is
// Unbound.
func FromInterface(x interface{}) Value {
	switch val := x.(type) {
	case nil:
		return Unbound
	case Value:
		return val
	case string:
		return String(val)
	case []byte:
		return String(string(val))
	case int:
		return Int(int64(val))
	case int64:
		return Int(val)
	case int32:
		return Int(int64(val))
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case bool:
		if val {
			return Number(1)
		}
		return Number(0)
	default:
		return String(fmt.Sprint(val))
	}
}
