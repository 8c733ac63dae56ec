package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	args := [][]byte{[]byte("set"), []byte("str"), []byte("foo"), []byte("bar")}
	frame, err := EncodeRequest(args)
	require.NoError(t, err)

	body := frame[HeaderLen:]
	got, err := DecodeRequest(body)
	require.NoError(t, err)
	require.Len(t, got, len(args))
	for i := range args {
		assert.Equal(t, args[i], got[i])
	}
}

func TestDecodeRequestRejectsTruncation(t *testing.T) {
	_, err := DecodeRequest([]byte{1, 0, 0, 0, 5, 0, 0, 0, 'h', 'i'})
	assert.Error(t, err)
}

func TestDecodeRequestRejectsArgcOverflow(t *testing.T) {
	body := make([]byte, 4)
	body[0] = 0x01
	body[1] = 0x04 // 1025 little-endian
	_, err := DecodeRequest(body)
	assert.Error(t, err)
}

func TestDecodeRequestRejectsTrailingBytes(t *testing.T) {
	frame, err := EncodeRequest([][]byte{[]byte("x")})
	require.NoError(t, err)
	body := append(frame[HeaderLen:], 0xff)
	_, err = DecodeRequest(body)
	assert.Error(t, err)
}

func TestValueRoundTripAllTags(t *testing.T) {
	cases := []Value{
		Nil(),
		Str(""),
		Str("hello"),
		Int(0),
		Int(-42),
		Err(ErrArg, "key don't exists"),
		Arr([]Value{Str("a"), Int(1), Nil(), Arr([]Value{Int(2), Str("nested")})}),
	}
	for _, v := range cases {
		encoded := v.Encode(nil)
		decoded, n, err := DecodeValue(encoded)
		require.NoError(t, err)
		assert.Equal(t, len(encoded), n)
		assert.Equal(t, v, decoded)
	}
}

func TestDecodeValueTruncatedArray(t *testing.T) {
	v := Arr([]Value{Str("a"), Str("b")})
	encoded := v.Encode(nil)
	_, _, err := DecodeValue(encoded[:len(encoded)-2])
	assert.Error(t, err)
}

func TestEncodeRequestRejectsOverLimit(t *testing.T) {
	big := make([]byte, MaxMsg)
	_, err := EncodeRequest([][]byte{big})
	assert.Error(t, err)
}
