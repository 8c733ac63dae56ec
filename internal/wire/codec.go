package wire

import (
	"encoding/binary"
	"fmt"
)

// DecodeRequest parses a request frame body (everything after the 4-byte
// total-length prefix) into its ordered argument list. It fails fast and
// returns no partial results: any truncation, an arg count over MaxArgs, or
// leftover/short bytes at the end is a framing error.
//
// body layout: argc:u32_le, then argc repetitions of arglen:u32_le,
// argbytes[arglen].
func DecodeRequest(body []byte) ([][]byte, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("wire: request shorter than argc header")
	}
	argc := binary.LittleEndian.Uint32(body[:4])
	if argc > MaxArgs {
		return nil, fmt.Errorf("wire: argc %d exceeds MaxArgs %d", argc, MaxArgs)
	}

	pos := 4
	args := make([][]byte, 0, argc)
	for range argc {
		if pos+4 > len(body) {
			return nil, fmt.Errorf("wire: truncated arg length")
		}
		arglen := int(binary.LittleEndian.Uint32(body[pos : pos+4]))
		pos += 4
		if pos+arglen > len(body) {
			return nil, fmt.Errorf("wire: truncated arg body")
		}
		args = append(args, body[pos:pos+arglen])
		pos += arglen
	}
	if pos != len(body) {
		return nil, fmt.Errorf("wire: %d trailing bytes after last arg", len(body)-pos)
	}
	return args, nil
}

// EncodeRequest builds a full request frame (length prefix + body) for the
// given arguments, for use by clients. Returns an error if the resulting
// frame body would exceed MaxMsg.
func EncodeRequest(args [][]byte) ([]byte, error) {
	bodyLen := 4
	for _, a := range args {
		bodyLen += 4 + len(a)
	}
	if bodyLen > MaxMsg {
		return nil, fmt.Errorf("wire: request body %d exceeds MaxMsg %d", bodyLen, MaxMsg)
	}

	frame := make([]byte, 0, HeaderLen+bodyLen)
	frame = appendU32(frame, uint32(bodyLen))
	frame = appendU32(frame, uint32(len(args)))
	for _, a := range args {
		frame = appendU32(frame, uint32(len(a)))
		frame = append(frame, a...)
	}
	return frame, nil
}

// EncodeReplyFrame wraps a reply Value in its 4-byte length prefix.
func EncodeReplyFrame(v Value) []byte {
	body := v.Encode(nil)
	frame := make([]byte, 0, HeaderLen+len(body))
	frame = appendU32(frame, uint32(len(body)))
	return append(frame, body...)
}
