// Package conn implements the per-connection state machine of spec.md
// §4.5: a bounded read/write buffer pair and a three-state FSM (READING,
// WRITING, CLOSED) that reassembles framed requests out of partial reads,
// dispatches complete pipelined requests before yielding, and resumes
// partial writes.
package conn

import (
	"golang.org/x/sys/unix"

	"github.com/qmmzzdx/kv-storage-server/internal/wire"
)

// State is one of the three states a Connection may be in.
type State int

const (
	StateReading State = iota
	StateWriting
	StateClosed
)

type logger interface {
	Warnw(msg string, args ...any)
}

// bufCap is the fixed capacity of both the read and write buffers: a
// 4-byte length prefix plus the maximum frame payload.
const bufCap = wire.HeaderLen + wire.MaxMsg

// Dispatch executes one decoded request and returns the reply value.
type Dispatch func(args [][]byte) wire.Value

// Connection owns one accepted socket's buffers and FSM state, exactly the
// Go rendering of ConnectionNode in server_utils.h.
type Connection struct {
	Fd    int
	State State

	rbuf     [bufCap]byte
	rbufFill int

	wbuf     [bufCap]byte
	wbufFill int
	wbufSent int

	dispatch Dispatch
	log      logger
}

// New wraps fd (already non-blocking) in a fresh Connection in the READING
// state.
func New(fd int, dispatch Dispatch, log logger) *Connection {
	return &Connection{Fd: fd, State: StateReading, dispatch: dispatch, log: log}
}

// TryFill issues one non-blocking read into the free tail of the read
// buffer, retrying on EINTR, then drains as many complete pipelined
// requests as are now buffered before returning — the inline drain loop
// spec.md §4.5 requires so that multiple requests in one read are all
// processed before the socket is re-armed. It returns true while the
// caller should keep calling TryFill (more progress may be possible
// without blocking).
func (c *Connection) TryFill() bool {
	if c.rbufFill >= len(c.rbuf) {
		// Should be impossible: try_one_request always drains a full
		// frame before the next read is attempted.
		c.fail("read buffer overflow invariant violated")
		return false
	}

	var n int
	var err error
	for {
		n, err = unix.Read(c.Fd, c.rbuf[c.rbufFill:])
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		if err == unix.EAGAIN {
			return false
		}
		c.log.Warnw("read error", "fd", c.Fd, "err", err)
		c.State = StateClosed
		return false
	}
	if n == 0 {
		c.log.Warnw("read EOF", "fd", c.Fd, "had_buffered", c.rbufFill > 0)
		c.State = StateClosed
		return false
	}
	c.rbufFill += n

	for c.tryOneRequest() {
	}
	return c.State == StateReading
}

// tryOneRequest extracts, dispatches, and replies to exactly one pipelined
// request if a complete frame is currently buffered. It returns true if it
// made progress and the caller (the drain loop) should try again for the
// next pipelined request.
func (c *Connection) tryOneRequest() bool {
	if c.rbufFill < wire.HeaderLen {
		return false
	}
	length := leU32(c.rbuf[:4])
	if length > wire.MaxMsg {
		c.fail("command is too long")
		return false
	}
	if wire.HeaderLen+int(length) > c.rbufFill {
		return false
	}

	body := c.rbuf[wire.HeaderLen : wire.HeaderLen+int(length)]
	reqArgs, err := wire.DecodeRequest(body)
	if err != nil {
		c.log.Warnw("bad request", "fd", c.Fd, "err", err)
		c.State = StateClosed
		return false
	}

	reply := c.dispatch(reqArgs)
	replyBody := reply.Encode(nil)
	if wire.HeaderLen+len(replyBody) > wire.MaxMsg {
		reply = wire.Err(wire.ErrTooBig, "response is too big.")
		replyBody = reply.Encode(nil)
	}
	putU32(c.wbuf[0:4], uint32(len(replyBody)))
	copy(c.wbuf[4:], replyBody)
	c.wbufFill = wire.HeaderLen + len(replyBody)

	consumed := wire.HeaderLen + int(length)
	remain := c.rbufFill - consumed
	if remain > 0 {
		copy(c.rbuf[:remain], c.rbuf[consumed:c.rbufFill])
	}
	c.rbufFill = remain

	c.State = StateWriting
	for c.TryFlush() {
	}
	return c.State == StateReading
}

// TryFlush issues one non-blocking write from the sent offset to the fill
// count, retrying on EINTR. It returns true while the caller should keep
// calling TryFlush (the write buffer has not yet fully drained and no
// would-block was seen).
func (c *Connection) TryFlush() bool {
	var n int
	var err error
	for {
		n, err = unix.Write(c.Fd, c.wbuf[c.wbufSent:c.wbufFill])
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		if err == unix.EAGAIN {
			return false
		}
		c.log.Warnw("write error", "fd", c.Fd, "err", err)
		c.State = StateClosed
		return false
	}
	c.wbufSent += n
	if c.wbufSent > c.wbufFill {
		c.fail("write sent more than buffered")
		return false
	}
	if c.wbufSent == c.wbufFill {
		c.State = StateReading
		c.wbufSent = 0
		c.wbufFill = 0
		return false
	}
	return true
}

// Step runs the I/O routine matching the connection's current state, per
// spec.md §4.6 step 2: try_fill's drain loop when READING, try_flush's
// drain loop when WRITING. Closed connections are a no-op.
func (c *Connection) Step() {
	switch c.State {
	case StateReading:
		for c.TryFill() {
		}
	case StateWriting:
		for c.TryFlush() {
		}
	}
}

func (c *Connection) fail(msg string) {
	c.log.Warnw(msg, "fd", c.Fd)
	c.State = StateClosed
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
