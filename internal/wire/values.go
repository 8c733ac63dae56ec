package wire

import (
	"encoding/binary"
	"fmt"
)

// Kind identifies which arm of the reply union a Value holds.
type Kind byte

const (
	KindNil Kind = Kind(tagNil)
	KindErr Kind = Kind(tagErr)
	KindStr Kind = Kind(tagStr)
	KindInt Kind = Kind(tagInt)
	KindArr Kind = Kind(tagArr)
)

// Value is the in-memory rendering of the wire reply sum type
// (NIL | ERR | STR | INT | ARR). Exactly one of the fields is meaningful,
// selected by Kind.
type Value struct {
	Kind Kind

	Str string

	Int int64

	ErrCode int32
	ErrMsg  string

	Arr []Value
}

// Nil builds a NIL reply value.
func Nil() Value { return Value{Kind: KindNil} }

// Str builds a STR reply value.
func Str(s string) Value { return Value{Kind: KindStr, Str: s} }

// Int builds an INT reply value.
func Int(v int64) Value { return Value{Kind: KindInt, Int: v} }

// Err builds an ERR reply value.
func Err(code int32, msg string) Value { return Value{Kind: KindErr, ErrCode: code, ErrMsg: msg} }

// Arr builds an ARR reply value.
func Arr(vs []Value) Value { return Value{Kind: KindArr, Arr: vs} }

// Encode appends the wire serialization of v to dst and returns the result.
func (v Value) Encode(dst []byte) []byte {
	switch v.Kind {
	case KindNil:
		return append(dst, tagNil)
	case KindStr:
		dst = append(dst, tagStr)
		dst = appendU32(dst, uint32(len(v.Str)))
		return append(dst, v.Str...)
	case KindInt:
		dst = append(dst, tagInt)
		return appendI64(dst, v.Int)
	case KindErr:
		dst = append(dst, tagErr)
		dst = appendU32(dst, uint32(v.ErrCode))
		dst = appendU32(dst, uint32(len(v.ErrMsg)))
		return append(dst, v.ErrMsg...)
	case KindArr:
		dst = append(dst, tagArr)
		dst = appendU32(dst, uint32(len(v.Arr)))
		for _, e := range v.Arr {
			dst = e.Encode(dst)
		}
		return dst
	default:
		panic(fmt.Sprintf("wire: unknown value kind %v", v.Kind))
	}
}

// DecodeValue parses one serialized value from buf, returning the value and
// the number of bytes it consumed. It recurses into array elements. An error
// is returned if buf is truncated at any point.
func DecodeValue(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, fmt.Errorf("wire: truncated value")
	}
	switch buf[0] {
	case tagNil:
		return Nil(), 1, nil
	case tagStr:
		if len(buf) < 1+4 {
			return Value{}, 0, fmt.Errorf("wire: truncated str header")
		}
		n := binary.LittleEndian.Uint32(buf[1:5])
		end := 5 + int(n)
		if len(buf) < end {
			return Value{}, 0, fmt.Errorf("wire: truncated str body")
		}
		return Str(string(buf[5:end])), end, nil
	case tagInt:
		if len(buf) < 1+8 {
			return Value{}, 0, fmt.Errorf("wire: truncated int")
		}
		v := int64(binary.LittleEndian.Uint64(buf[1:9]))
		return Int(v), 9, nil
	case tagErr:
		if len(buf) < 1+8 {
			return Value{}, 0, fmt.Errorf("wire: truncated err header")
		}
		code := int32(binary.LittleEndian.Uint32(buf[1:5]))
		n := binary.LittleEndian.Uint32(buf[5:9])
		end := 9 + int(n)
		if len(buf) < end {
			return Value{}, 0, fmt.Errorf("wire: truncated err message")
		}
		return Err(code, string(buf[9:end])), end, nil
	case tagArr:
		if len(buf) < 1+4 {
			return Value{}, 0, fmt.Errorf("wire: truncated arr header")
		}
		n := binary.LittleEndian.Uint32(buf[1:5])
		pos := 5
		elems := make([]Value, 0, n)
		for range n {
			e, consumed, err := DecodeValue(buf[pos:])
			if err != nil {
				return Value{}, 0, err
			}
			elems = append(elems, e)
			pos += consumed
		}
		return Arr(elems), pos, nil
	default:
		return Value{}, 0, fmt.Errorf("wire: unknown tag byte %q", buf[0])
	}
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendI64(dst []byte, v int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	return append(dst, b[:]...)
}
