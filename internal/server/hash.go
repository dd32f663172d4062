package server

import (
	"github.com/lunardb/lunar/internal/resp"
)

// hset handles HSET key field value [field value ...].
// The reply counts newly created fields; overwrites count zero.
func hset(ctx *context) resp.Value {
	if len(ctx.args) < 3 || len(ctx.args)%2 != 1 {
		return resp.MakeErrorWrongNumberOfArguments("hset")
	}
	key := ctx.arg(0)

	var created int64
	for i := 1; i < len(ctx.args); i += 2 {
		n, err := ctx.store.HSet(key, ctx.arg(i), ctx.arg(i+1))
		if err != nil {
			return storeErr(err)
		}
		created += n
	}
	return resp.MakeInteger(created)
}

// hmset is the legacy alias of HSET: same writes, but the reply is a plain
// OK instead of the new-field count.
func hmset(ctx *context) resp.Value {
	if len(ctx.args) < 3 || len(ctx.args)%2 != 1 {
		return resp.MakeErrorWrongNumberOfArguments("hmset")
	}
	key := ctx.arg(0)

	for i := 1; i < len(ctx.args); i += 2 {
		if _, err := ctx.store.HSet(key, ctx.arg(i), ctx.arg(i+1)); err != nil {
			return storeErr(err)
		}
	}
	return resp.MakeSimpleString("OK")
}

func hsetnx(ctx *context) resp.Value {
	if len(ctx.args) != 3 {
		return resp.MakeErrorWrongNumberOfArguments("hsetnx")
	}

	written, err := ctx.store.HSetNX(ctx.arg(0), ctx.arg(1), ctx.arg(2))
	if err != nil {
		return storeErr(err)
	}
	if written {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}

func hget(ctx *context) resp.Value {
	if len(ctx.args) != 2 {
		return resp.MakeErrorWrongNumberOfArguments("hget")
	}

	v, ok, err := ctx.store.HGet(ctx.arg(0), ctx.arg(1))
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(v)
}

// hmget replies with one bulk per requested field, null for absent fields
// and for a missing key.
func hmget(ctx *context) resp.Value {
	if len(ctx.args) < 2 {
		return resp.MakeErrorWrongNumberOfArguments("hmget")
	}

	out := make([]resp.Value, 0, len(ctx.args)-1)
	for i := 1; i < len(ctx.args); i++ {
		v, ok, err := ctx.store.HGet(ctx.arg(0), ctx.arg(i))
		if err != nil {
			return storeErr(err)
		}
		if !ok {
			out = append(out, resp.MakeNilBulkString())
			continue
		}
		out = append(out, resp.MakeBulkString(v))
	}
	return resp.MakeArray(out)
}

func hdel(ctx *context) resp.Value {
	if len(ctx.args) < 2 {
		return resp.MakeErrorWrongNumberOfArguments("hdel")
	}

	fields := make([]string, 0, len(ctx.args)-1)
	for i := 1; i < len(ctx.args); i++ {
		fields = append(fields, ctx.arg(i))
	}

	n, err := ctx.store.HDel(ctx.arg(0), fields...)
	if err != nil {
		return storeErr(err)
	}
	return resp.MakeInteger(n)
}

// hgetall replies with a flat [field, value, field, value, ...] array.
func hgetall(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("hgetall")
	}

	fields, err := ctx.store.HGetAll(ctx.arg(0))
	if err != nil {
		return storeErr(err)
	}

	out := make([]resp.Value, 0, len(fields)*2)
	for f, v := range fields {
		out = append(out, resp.MakeBulkString(f), resp.MakeBulkString(v))
	}
	return resp.MakeArray(out)
}

func hexists(ctx *context) resp.Value {
	if len(ctx.args) != 2 {
		return resp.MakeErrorWrongNumberOfArguments("hexists")
	}

	ok, err := ctx.store.HExists(ctx.arg(0), ctx.arg(1))
	if err != nil {
		return storeErr(err)
	}
	if ok {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}

func hlen(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("hlen")
	}

	n, err := ctx.store.HLen(ctx.arg(0))
	if err != nil {
		return storeErr(err)
	}
	return resp.MakeInteger(n)
}

func hkeys(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("hkeys")
	}

	keys, err := ctx.store.HKeys(ctx.arg(0))
	if err != nil {
		return storeErr(err)
	}
	return makeBulkArray(keys)
}

func hvals(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("hvals")
	}

	vals, err := ctx.store.HVals(ctx.arg(0))
	if err != nil {
		return storeErr(err)
	}
	return makeBulkArray(vals)
}

func makeBulkArray(elems []string) resp.Value {
	out := make([]resp.Value, len(elems))
	for i, e := range elems {
		out[i] = resp.MakeBulkString(e)
	}
	return resp.MakeArray(out)
}
