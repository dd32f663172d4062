package server

import (
	"strings"

	"github.com/lunardb/lunar/internal/resp"
	"github.com/lunardb/lunar/internal/store"
)

func ping(ctx *context) resp.Value {
	switch len(ctx.args) {
	case 0:
		return resp.MakeSimpleString("PONG")
	case 1:
		return resp.MakeBulkString(ctx.arg(0))
	default:
		return resp.MakeErrorWrongNumberOfArguments("PING")
	}
}

func echo(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("echo")
	}
	return resp.MakeBulkString(ctx.arg(0))
}

// cmd implements COMMAND, COMMAND DOCS and COMMAND COUNT against the
// static metadata registry.
func cmd(ctx *context) resp.Value {
	if len(ctx.args) == 0 {
		return getAllCommands()
	}

	switch strings.ToUpper(ctx.arg(0)) {
	case "DOCS":
		return getCommandsDocs(ctx.args[1:])
	case "COUNT":
		return resp.MakeInteger(int64(len(commandRegistry)))
	default:
		return resp.MakeError("ERR unknown COMMAND subcommand '" + ctx.arg(0) + "'")
	}
}

func del(ctx *context) resp.Value {
	if len(ctx.args) < 1 {
		return resp.MakeErrorWrongNumberOfArguments("del")
	}

	var removed int64
	for i := range ctx.args {
		if ctx.store.Del(ctx.arg(i)) {
			removed++
		}
	}
	return resp.MakeInteger(removed)
}

func exists(ctx *context) resp.Value {
	if len(ctx.args) < 1 {
		return resp.MakeErrorWrongNumberOfArguments("exists")
	}

	var count int64
	for i := range ctx.args {
		if ctx.store.Exists(ctx.arg(i)) {
			count++
		}
	}
	return resp.MakeInteger(count)
}

func ttl(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("ttl")
	}

	ms, status := ctx.store.PTTL(ctx.arg(0))
	if status != store.ExpActive {
		return resp.MakeInteger(int64(status))
	}
	// round up so a key with any time left never reports 0
	return resp.MakeInteger((ms + 999) / 1000)
}

func pttl(ctx *context) resp.Value {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("pttl")
	}

	ms, status := ctx.store.PTTL(ctx.arg(0))
	if status != store.ExpActive {
		return resp.MakeInteger(int64(status))
	}
	return resp.MakeInteger(ms)
}
