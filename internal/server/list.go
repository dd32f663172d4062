package server

import (
	"strconv"

	"github.com/lunardb/lunar/internal/resp"
)

func lpush(ctx *context) resp.Value {
	return push(ctx, "lpush", ctx.store.LPush)
}

func rpush(ctx *context) resp.Value {
	return push(ctx, "rpush", ctx.store.RPush)
}

func push(ctx *context, name string, op func(string, ...string) (int64, error)) resp.Value {
	if len(ctx.args) < 2 {
		return resp.MakeErrorWrongNumberOfArguments(name)
	}

	values := make([]string, 0, len(ctx.args)-1)
	for i := 1; i < len(ctx.args); i++ {
		values = append(values, ctx.arg(i))
	}

	n, err := op(ctx.arg(0), values...)
	if err != nil {
		return storeErr(err)
	}
	return resp.MakeInteger(n)
}

func lpop(ctx *context) resp.Value {
	return pop(ctx, "lpop", ctx.store.LPop)
}

func rpop(ctx *context) resp.Value {
	return pop(ctx, "rpop", ctx.store.RPop)
}

func pop(ctx *context, name string, op func(string) (string, bool, error)) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments(name)
	}

	v, ok, err := op(ctx.arg(0))
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(v)
}

func llen(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("llen")
	}

	n, err := ctx.store.LLen(ctx.arg(0))
	if err != nil {
		return storeErr(err)
	}
	return resp.MakeInteger(n)
}

func lrange(ctx *context) resp.Value {
	if len(ctx.args) != 3 {
		return resp.MakeErrorWrongNumberOfArguments("lrange")
	}

	start, err1 := strconv.ParseInt(ctx.arg(1), 10, 64)
	stop, err2 := strconv.ParseInt(ctx.arg(2), 10, 64)
	if err1 != nil || err2 != nil {
		return resp.MakeError("ERR value is not an integer or out of range")
	}

	elems, err := ctx.store.LRange(ctx.arg(0), start, stop)
	if err != nil {
		return storeErr(err)
	}
	return makeBulkArray(elems)
}

func lindex(ctx *context) resp.Value {
	if len(ctx.args) != 2 {
		return resp.MakeErrorWrongNumberOfArguments("lindex")
	}

	index, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return resp.MakeError("ERR value is not an integer or out of range")
	}

	v, ok, err := ctx.store.LIndex(ctx.arg(0), index)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(v)
}

func lset(ctx *context) resp.Value {
	if len(ctx.args) != 3 {
		return resp.MakeErrorWrongNumberOfArguments("lset")
	}

	index, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return resp.MakeError("ERR value is not an integer or out of range")
	}

	if err := ctx.store.LSet(ctx.arg(0), index, ctx.arg(2)); err != nil {
		return storeErr(err)
	}
	return resp.MakeSimpleString("OK")
}

func lrem(ctx *context) resp.Value {
	if len(ctx.args) != 3 {
		return resp.MakeErrorWrongNumberOfArguments("lrem")
	}

	count, err := strconv.ParseInt(ctx.arg(1), 10, 64)
	if err != nil {
		return resp.MakeError("ERR value is not an integer or out of range")
	}

	removed, err := ctx.store.LRem(ctx.arg(0), count, ctx.arg(2))
	if err != nil {
		return storeErr(err)
	}
	return resp.MakeInteger(removed)
}

func ltrim(ctx *context) resp.Value {
	if len(ctx.args) != 3 {
		return resp.MakeErrorWrongNumberOfArguments("ltrim")
	}

	start, err1 := strconv.ParseInt(ctx.arg(1), 10, 64)
	stop, err2 := strconv.ParseInt(ctx.arg(2), 10, 64)
	if err1 != nil || err2 != nil {
		return resp.MakeError("ERR value is not an integer or out of range")
	}

	if err := ctx.store.LTrim(ctx.arg(0), start, stop); err != nil {
		return storeErr(err)
	}
	return resp.MakeSimpleString("OK")
}
