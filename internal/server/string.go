package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lunardb/lunar/internal/resp"
	"github.com/lunardb/lunar/internal/store"
)

// storeErr maps a store error to its RESP reply.
func storeErr(err error) resp.Value {
	switch {
	case errors.Is(err, store.ErrWrongType):
		return resp.MakeErrorWrongType()
	case errors.Is(err, store.ErrNotInteger):
		return resp.MakeError("ERR value is not an integer or out of range")
	case errors.Is(err, store.ErrNoSuchKey):
		return resp.MakeError("ERR no such key")
	case errors.Is(err, store.ErrIndexOutRange):
		return resp.MakeError("ERR index out of range")
	default:
		return resp.MakeError("ERR " + err.Error())
	}
}

func get(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("get")
	}

	v, ok, err := ctx.store.GetString(ctx.arg(0))
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(v)
}

// set handles SET key value [EX seconds | PX milliseconds] [NX | XX].
// The TTL option is converted to an absolute expiration before it reaches
// the store; NX and XX fold into a single conditional write.
func set(ctx *context) resp.Value {
	if len(ctx.args) < 2 {
		return resp.MakeErrorWrongNumberOfArguments("set")
	}
	key, value := ctx.arg(0), ctx.arg(1)

	var (
		expireAt int64
		nx, xx   bool
	)
	for i := 2; i < len(ctx.args); i++ {
		switch strings.ToUpper(ctx.arg(i)) {
		case "EX", "PX":
			unit := time.Second
			if strings.ToUpper(ctx.arg(i)) == "PX" {
				unit = time.Millisecond
			}
			if i+1 >= len(ctx.args) {
				return resp.MakeError("ERR syntax error")
			}
			i++
			n, err := strconv.ParseInt(ctx.arg(i), 10, 64)
			if err != nil || n <= 0 {
				return resp.MakeError("ERR invalid expire time in 'set' command")
			}
			expireAt = time.Now().Add(time.Duration(n) * unit).UnixMilli()
		case "NX":
			nx = true
		case "XX":
			xx = true
		default:
			return resp.MakeError("ERR syntax error")
		}
	}
	if nx && xx {
		return resp.MakeError("ERR syntax error")
	}

	switch {
	case nx:
		if !ctx.store.SetNX(key, value, expireAt) {
			return resp.MakeNilBulkString()
		}
	case xx:
		if !ctx.store.SetXX(key, value, expireAt) {
			return resp.MakeNilBulkString()
		}
	default:
		ctx.store.SetAt(key, value, expireAt)
	}
	return resp.MakeSimpleString("OK")
}

func strlen(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("strlen")
	}

	v, ok, err := ctx.store.GetString(ctx.arg(0))
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.MakeInteger(0)
	}
	return resp.MakeInteger(int64(len(v)))
}

func appendCmd(ctx *context) resp.Value {
	if len(ctx.args) != 2 {
		return resp.MakeErrorWrongNumberOfArguments("append")
	}

	n, err := ctx.store.Append(ctx.arg(0), ctx.arg(1))
	if err != nil {
		return storeErr(err)
	}
	return resp.MakeInteger(n)
}

func incr(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("incr")
	}
	return incrByDelta(ctx, ctx.arg(0), 1)
}

func decr(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("decr")
	}
	return incrByDelta(ctx, ctx.arg(0), -1)
}

func incrBy(ctx *context) resp.Value {
	if len(ctx.args) != 2 {
		return resp.MakeErrorWrongNumberOfArguments("incrby")
	}
	delta, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return resp.MakeError("ERR value is not an integer or out of range")
	}
	return incrByDelta(ctx, ctx.arg(0), delta)
}

func decrBy(ctx *context) resp.Value {
	if len(ctx.args) != 2 {
		return resp.MakeErrorWrongNumberOfArguments("decrby")
	}
	delta, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return resp.MakeError("ERR value is not an integer or out of range")
	}
	return incrByDelta(ctx, ctx.arg(0), -delta)
}

func incrByDelta(ctx *context, key string, delta int64) resp.Value {
	n, err := ctx.store.IncrBy(key, delta)
	if err != nil {
		return storeErr(err)
	}
	return resp.MakeInteger(n)
}

func mget(ctx *context) resp.Value {
	if len(ctx.args) < 1 {
		return resp.MakeErrorWrongNumberOfArguments("mget")
	}

	out := make([]resp.Value, len(ctx.args))
	for i := range ctx.args {
		v, ok, err := ctx.store.GetString(ctx.arg(i))
		if err != nil || !ok {
			// wrong-type keys read as null here, matching the
			// many-keys contract: one bad key never fails the batch
			out[i] = resp.MakeNilBulkString()
			continue
		}
		out[i] = resp.MakeBulkString(v)
	}
	return resp.MakeArray(out)
}

func mset(ctx *context) resp.Value {
	if len(ctx.args) < 2 || len(ctx.args)%2 != 0 {
		return resp.MakeErrorWrongNumberOfArguments("mset")
	}

	for i := 0; i < len(ctx.args); i += 2 {
		ctx.store.SetAt(ctx.arg(i), ctx.arg(i+1), 0)
	}
	return resp.MakeSimpleString("OK")
}

// msetnx writes every pair or none: a single pre-existing key refuses the
// whole batch.
func msetnx(ctx *context) resp.Value {
	if len(ctx.args) < 2 || len(ctx.args)%2 != 0 {
		return resp.MakeErrorWrongNumberOfArguments("msetnx")
	}

	kvs := make([]string, len(ctx.args))
	for i := range ctx.args {
		kvs[i] = ctx.arg(i)
	}
	if ctx.store.MSetNX(kvs...) {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}
