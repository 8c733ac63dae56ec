package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qmmzzdx/kv-storage-server/internal/store"
	"github.com/qmmzzdx/kv-storage-server/internal/wire"
)

func newDispatcher() *Dispatcher {
	return New(store.NewStringStore(), store.NewSortedSet(18, nil), nil)
}

func args(strs ...string) [][]byte {
	out := make([][]byte, len(strs))
	for i, s := range strs {
		out[i] = []byte(s)
	}
	return out
}

func TestStringScenario(t *testing.T) {
	d := newDispatcher()

	assert.Equal(t, wire.Nil(), d.Dispatch(args("set", "str", "foo", "bar")))
	assert.Equal(t, wire.Str("bar"), d.Dispatch(args("get", "str", "foo")))
	assert.Equal(t, wire.Int(1), d.Dispatch(args("del", "str", "foo")))
	assert.Equal(t, wire.Nil(), d.Dispatch(args("get", "str", "foo")))
}

func TestZsetScenario(t *testing.T) {
	d := newDispatcher()

	assert.Equal(t, wire.Int(1), d.Dispatch(args("zadd", "zset", "10", "alice")))
	assert.Equal(t, wire.Int(1), d.Dispatch(args("zadd", "zset", "20", "bob")))
	assert.Equal(t, wire.Int(2), d.Dispatch(args("zcard", "zset")))
	assert.Equal(t, wire.Int(10), d.Dispatch(args("zscore", "zset", "alice")))
	assert.Equal(t, wire.Int(1), d.Dispatch(args("zrem", "zset", "alice")))
	assert.Equal(t, wire.Err(wire.ErrArg, "key don't exists"), d.Dispatch(args("zscore", "zset", "alice")))
}

func TestZaddBadScoreType(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, wire.Err(wire.ErrType, "expect score number"),
		d.Dispatch(args("zadd", "zset", "notanumber", "alice")))
	assert.Equal(t, wire.Int(0), d.Dispatch(args("zcard", "zset")))
}

func TestZaddDuplicateScoreRejected(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, wire.Int(1), d.Dispatch(args("zadd", "zset", "10", "alice")))
	assert.Equal(t, wire.Err(wire.ErrArg, "key or value already exists"),
		d.Dispatch(args("zadd", "zset", "10", "bob")))
	assert.Equal(t, wire.Int(1), d.Dispatch(args("zcard", "zset")))
}

func TestUnknownCommandSurvivesConnection(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, wire.Err(wire.ErrUnknown, "Unknown cmd"), d.Dispatch(args("FOOBAR")))
	assert.Equal(t, wire.Nil(), d.Dispatch(args("set", "str", "a", "b")))
}

func TestWrongArityIsUnknown(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, wire.Err(wire.ErrUnknown, "Unknown cmd"), d.Dispatch(args("get", "str")))
	assert.Equal(t, wire.Err(wire.ErrUnknown, "Unknown cmd"), d.Dispatch(args("zcard", "zset", "extra")))
}

func TestKeysConcatenatesBothStores(t *testing.T) {
	d := newDispatcher()
	d.Dispatch(args("set", "str", "a", "1"))
	d.Dispatch(args("zadd", "zset", "1", "m"))

	reply := d.Dispatch(args("keys"))
	assert.Equal(t, wire.KindArr, reply.Kind)
	assert.Len(t, reply.Arr, 2)
}

func TestCaseInsensitiveCommandMatching(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, wire.Nil(), d.Dispatch(args("SET", "STR", "a", "b")))
	assert.Equal(t, wire.Str("b"), d.Dispatch(args("Get", "Str", "a")))
}

func TestEmptyStringValueRoundTrips(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, wire.Nil(), d.Dispatch(args("set", "str", "k", "")))
	assert.Equal(t, wire.Str(""), d.Dispatch(args("get", "str", "k")))
}
