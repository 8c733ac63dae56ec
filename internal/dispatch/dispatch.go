// Package dispatch implements the command dispatcher of spec.md §4.4: it
// recognizes command tuples case-insensitively, enforces exact arity,
// invokes the string store or sorted set, and produces a reply wire.Value.
package dispatch

import (
	"bytes"
	"strconv"

	"github.com/qmmzzdx/kv-storage-server/internal/store"
	"github.com/qmmzzdx/kv-storage-server/internal/wire"
)

// logger is the minimal structured-logging surface the dispatcher needs,
// satisfied by *logging.Logger without importing its zap dependency chain
// into this package's public API.
type logger interface {
	Debugw(msg string, args ...any)
	Warnw(msg string, args ...any)
}

// Dispatcher recognizes and executes commands against the two backing
// stores, per spec.md §4.4's command table.
type Dispatcher struct {
	strings *store.StringStore
	zset    *store.SortedSet
	log     logger
}

// New returns a Dispatcher wired to the given stores. log may be nil.
func New(strings *store.StringStore, zset *store.SortedSet, log logger) *Dispatcher {
	return &Dispatcher{strings: strings, zset: zset, log: log}
}

func eqFold(b []byte, s string) bool {
	return bytes.EqualFold(b, []byte(s))
}

// Dispatch matches args against the command table and executes the
// matching command, or replies ERR(UNKNOWN) if no command matches exactly
// — unknown commands and wrong-arity invocations collapse to the same
// error kind, per spec.md §4.4 and §7.
func (d *Dispatcher) Dispatch(args [][]byte) wire.Value {
	switch {
	case len(args) == 1 && eqFold(args[0], "keys"):
		return d.doKeys()

	case len(args) == 3 && eqFold(args[0], "get") && eqFold(args[1], "str"):
		return d.doGet(args[2])

	case len(args) == 4 && eqFold(args[0], "set") && eqFold(args[1], "str"):
		return d.doSet(args[2], args[3])

	case len(args) == 3 && eqFold(args[0], "del") && eqFold(args[1], "str"):
		return d.doDel(args[2])

	case len(args) == 4 && eqFold(args[0], "zadd") && eqFold(args[1], "zset"):
		return d.doZAdd(args[2], args[3])

	case len(args) == 3 && eqFold(args[0], "zrem") && eqFold(args[1], "zset"):
		return d.doZRem(args[2])

	case len(args) == 3 && eqFold(args[0], "zscore") && eqFold(args[1], "zset"):
		return d.doZScore(args[2])

	case len(args) == 2 && eqFold(args[0], "zcard") && eqFold(args[1], "zset"):
		return d.doZCard()
	}

	if d.log != nil {
		d.log.Warnw("unknown command or wrong arity", "argc", len(args))
	}
	return wire.Err(wire.ErrUnknown, "Unknown cmd")
}

func (d *Dispatcher) doKeys() wire.Value {
	strKeys := d.strings.Keys()
	members := d.zset.Members()

	out := make([]wire.Value, 0, len(strKeys)+len(members))
	for _, k := range strKeys {
		out = append(out, wire.Str(k))
	}
	for _, m := range members {
		out = append(out, wire.Str(m))
	}

	d.debug("keys")
	return wire.Arr(out)
}

func (d *Dispatcher) doGet(key []byte) wire.Value {
	v, ok := d.strings.Get(string(key))
	d.debug("get")
	if !ok {
		return wire.Nil()
	}
	return wire.Str(v)
}

func (d *Dispatcher) doSet(key, value []byte) wire.Value {
	d.strings.Set(string(key), string(value))
	d.debug("set")
	return wire.Nil()
}

func (d *Dispatcher) doDel(key []byte) wire.Value {
	n := d.strings.Del(string(key))
	d.debug("del")
	return wire.Int(n)
}

func (d *Dispatcher) doZAdd(scoreArg, member []byte) wire.Value {
	score, ok := parseInt64(scoreArg)
	if !ok {
		return wire.Err(wire.ErrType, "expect score number")
	}

	switch d.zset.ZAdd(score, string(member)) {
	case store.ZAddOK:
		d.debug("zadd")
		return wire.Int(1)
	default:
		d.debug("zadd")
		return wire.Err(wire.ErrArg, "key or value already exists")
	}
}

func (d *Dispatcher) doZRem(member []byte) wire.Value {
	removed := d.zset.ZRem(string(member))
	d.debug("zrem")
	if removed {
		return wire.Int(1)
	}
	return wire.Int(0)
}

func (d *Dispatcher) doZScore(member []byte) wire.Value {
	score, ok := d.zset.ZScore(string(member))
	d.debug("zscore")
	if !ok {
		return wire.Err(wire.ErrArg, "key don't exists")
	}
	return wire.Int(score)
}

func (d *Dispatcher) doZCard() wire.Value {
	d.debug("zcard")
	return wire.Int(d.zset.ZCard())
}

func (d *Dispatcher) debug(op string) {
	if d.log != nil {
		d.log.Debugw("execute operation", "op", op)
	}
}

// parseInt64 mirrors str_to_int from server_utils.cpp: the entire string
// must be consumed as a base-10 integer, or parsing fails.
func parseInt64(b []byte) (int64, bool) {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
