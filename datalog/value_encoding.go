package datalog

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoding layout of a single value:
//
//	KindUnbound: tag
//	KindString:  tag | uvarint(len) | bytes
//	KindNumber:  tag | 8 bytes big-endian IEEE 754
//
// The layout is self-delimiting, so concatenating the encodings of the values
// of a tuple gives a canonical composite key: two tuples encode to the same
// bytes iff they are positionally Equal.

// AppendValue appends the canonical encoding of v to buf
func AppendValue(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.kind))
	switch v.kind {
	case KindString:
		buf = binary.AppendUvarint(buf, uint64(len(v.str)))
		buf = append(buf, v.str...)
	case KindNumber:
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v.num))
	}
	return buf
}

// AppendKey appends the composite key of a whole tuple to buf
func AppendKey(buf []byte, t Tuple) []byte {
	for _, v := range t {
		buf = AppendValue(buf, v)
	}
	return buf
}

// EncodeTuple serializes a tuple for storage: uvarint(arity) followed by the
// values.
func EncodeTuple(t Tuple) []byte {
	buf := make([]byte, 0, 1+len(t)*9)
	buf = binary.AppendUvarint(buf, uint64(len(t)))
	return AppendKey(buf, t)
}

// DecodeTuple is the inverse of EncodeTuple
func DecodeTuple(data []byte) (Tuple, error) {
	n, read := binary.Uvarint(data)
	if read <= 0 {
		return nil, fmt.Errorf("invalid tuple header")
	}
	data = data[read:]

	t := make(Tuple, 0, n)
	for i := uint64(0); i < n; i++ {
		v, rest, err := decodeValue(data)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		t = append(t, v)
		data = rest
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after tuple", len(data))
	}
	return t, nil
}

func decodeValue(data []byte) (Value, []byte, error) {
	if len(data) == 0 {
		return Unbound, nil, fmt.Errorf("unexpected end of data")
	}
	kind := Kind(data[0])
	data = data[1:]

	switch kind {
	case KindUnbound:
		return Unbound, data, nil
	case KindString:
		size, read := binary.Uvarint(data)
		if read <= 0 || uint64(len(data)-read) < size {
			return Unbound, nil, fmt.Errorf("invalid string length")
		}
		data = data[read:]
		// Already normalized when it was encoded.
		return Value{kind: KindString, str: string(data[:size])}, data[size:], nil
	case KindNumber:
		if len(data) < 8 {
			return Unbound, nil, fmt.Errorf("number value must be 8 bytes, got %d", len(data))
		}
		return Number(math.Float64frombits(binary.BigEndian.Uint64(data))), data[8:], nil
	default:
		return Unbound, nil, fmt.Errorf("unknown value kind: %d", kind)
	}
}
