// Package wire implements the length-prefixed request/reply framing and
// the tagged-union reply value encoding for the kv-storage-server protocol.
package wire

// Protocol limits, per spec.
const (
	// MaxMsg is the maximum payload size, in bytes, of a single request or
	// reply frame body (excluding the 4-byte length prefix).
	MaxMsg = 4096
	// MaxArgs is the maximum number of arguments a request may carry.
	MaxArgs = 1024
	// HeaderLen is the size in bytes of the frame length prefix.
	HeaderLen = 4
)

// Error codes carried in ERR replies. Opaque to clients beyond display.
const (
	ErrUnknown = 1
	ErrTooBig  = 2
	ErrType    = 3
	ErrArg     = 4
)

// Tag bytes for the serialized value union.
const (
	tagNil byte = '0'
	tagErr byte = '1'
	tagStr byte = '2'
	tagInt byte = '3'
	tagArr byte = '4'
)
