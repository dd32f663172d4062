package server

import (
	"github.com/lunardb/lunar/internal/resp"
	"github.com/lunardb/lunar/internal/store"
)

// context carries one command invocation: the decoded arguments (command
// name excluded) and the store to run against.
type context struct {
	args  []resp.Value
	store *store.Store
}

// arg returns argument i as a string. The caller must have validated arity.
func (c *context) arg(i int) string {
	return string(c.args[i].String)
}

type command interface {
	execute(ctx *context) resp.Value
}

type commandFunc func(ctx *context) resp.Value

func (f commandFunc) execute(ctx *context) resp.Value {
	return f(ctx)
}
