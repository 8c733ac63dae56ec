package eventloop

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qmmzzdx/kv-storage-server/internal/wire"
)

type nullLogger struct{}

func (nullLogger) Infow(msg string, args ...any)  {}
func (nullLogger) Warnw(msg string, args ...any)  {}
func (nullLogger) Errorw(msg string, args ...any) {}

func echoDispatch(args [][]byte) wire.Value {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = string(a)
	}
	return wire.Str(strings.Join(parts, " "))
}

func startLoop(t *testing.T) (*Loop, chan struct{}) {
	t.Helper()
	l := New(Config{Host: "127.0.0.1", Port: 0, PollTimeout: 200}, echoDispatch, nullLogger{})
	done := make(chan struct{})
	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(done) }()

	select {
	case <-l.Ready():
	case err := <-runErr:
		t.Fatalf("loop exited before ready: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loop readiness")
	}

	t.Cleanup(func() {
		close(done)
		select {
		case err := <-runErr:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("loop did not shut down")
		}
	})
	return l, done
}

func TestEventLoopServesOneRequest(t *testing.T) {
	l, _ := startLoop(t)

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", itoa(l.BoundPort())))
	require.NoError(t, err)
	defer conn.Close()

	frame, err := wire.EncodeRequest([][]byte{[]byte("ping"), []byte("1")})
	require.NoError(t, err)
	_, err = conn.Write(frame)
	require.NoError(t, err)

	var hdr [4]byte
	_, err = readFull(conn, hdr[:])
	require.NoError(t, err)
	length := binary.LittleEndian.Uint32(hdr[:])
	body := make([]byte, length)
	_, err = readFull(conn, body)
	require.NoError(t, err)

	v, _, err := wire.DecodeValue(body)
	require.NoError(t, err)
	require.Equal(t, wire.Str("ping 1"), v)
}

func TestEventLoopServesMultipleConnections(t *testing.T) {
	l, _ := startLoop(t)
	addr := net.JoinHostPort("127.0.0.1", itoa(l.BoundPort()))

	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)

		frame, err := wire.EncodeRequest([][]byte{[]byte("client"), []byte(itoa(i))})
		require.NoError(t, err)
		_, err = conn.Write(frame)
		require.NoError(t, err)

		var hdr [4]byte
		_, err = readFull(conn, hdr[:])
		require.NoError(t, err)
		length := binary.LittleEndian.Uint32(hdr[:])
		body := make([]byte, length)
		_, err = readFull(conn, body)
		require.NoError(t, err)

		v, _, err := wire.DecodeValue(body)
		require.NoError(t, err)
		require.Equal(t, wire.Str("client "+itoa(i)), v)
		conn.Close()
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
