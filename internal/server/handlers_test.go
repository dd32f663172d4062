package server

import (
	"testing"
	"time"

	"github.com/lunardb/lunar/internal/config"
	"github.com/lunardb/lunar/internal/resp"
	"github.com/lunardb/lunar/internal/store"
	"go.uber.org/zap"
)

// setupEngine creates a fresh engine with a clean store for each test
func setupEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(store.New(), &config.Config{
		GC: config.GCConfig{Enabled: false},
		Persistence: config.PersistenceConfig{
			AOF: config.AOFConfig{Enabled: false},
			RDB: config.RDBConfig{Enabled: false},
		},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("engine setup: %v", err)
	}
	return eng
}

// helper to construct the argument list of a RESP command request
func makeArgs(args ...string) []resp.Value {
	vals := make([]resp.Value, len(args))
	for i, arg := range args {
		vals[i] = resp.MakeBulkString(arg)
	}
	return vals
}

func TestPing(t *testing.T) {
	e := setupEngine(t)

	tests := []struct {
		name     string
		args     []string
		wantType byte
		wantStr  string
	}{
		{"Simple PING", []string{}, resp.TypeSimpleString, "PONG"},
		{"PING with message", []string{"Hello"}, resp.TypeBulkString, "Hello"},
		{"PING too many args", []string{"a", "b"}, resp.TypeError, string(resp.MakeErrorWrongNumberOfArguments("PING").String)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Execute("PING", makeArgs(tt.args...))
			if res.Type != tt.wantType {
				t.Errorf("got type %c, want %c", res.Type, tt.wantType)
			}
			if got := string(res.String); got != tt.wantStr {
				t.Errorf("got %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestBasicSetGetDel(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute("GET", makeArgs("mykey"))
	if !res.IsNull {
		t.Errorf("expected null for missing key, got %v", res)
	}

	res = e.Execute("SET", makeArgs("mykey", "myvalue"))
	if res.Type != resp.TypeSimpleString || string(res.String) != "OK" {
		t.Errorf("SET reply = %v, want +OK", res)
	}

	res = e.Execute("GET", makeArgs("mykey"))
	if string(res.String) != "myvalue" {
		t.Errorf("GET = %q, want %q", res.String, "myvalue")
	}

	res = e.Execute("DEL", makeArgs("mykey", "nosuchkey"))
	if res.Integer != 1 {
		t.Errorf("DEL = %d, want 1", res.Integer)
	}

	res = e.Execute("GET", makeArgs("mykey"))
	if !res.IsNull {
		t.Errorf("expected null after DEL, got %v", res)
	}
}

func TestSetOptions(t *testing.T) {
	e := setupEngine(t)

	// NX on a fresh key writes, on an existing key refuses
	res := e.Execute("SET", makeArgs("k", "v1", "NX"))
	if string(res.String) != "OK" {
		t.Fatalf("SET NX on fresh key = %v, want OK", res)
	}
	res = e.Execute("SET", makeArgs("k", "v2", "NX"))
	if !res.IsNull {
		t.Errorf("SET NX on existing key = %v, want null", res)
	}
	res = e.Execute("GET", makeArgs("k"))
	if string(res.String) != "v1" {
		t.Errorf("refused NX write still changed value: %q", res.String)
	}

	// XX is the mirror image
	res = e.Execute("SET", makeArgs("other", "v", "XX"))
	if !res.IsNull {
		t.Errorf("SET XX on missing key = %v, want null", res)
	}
	res = e.Execute("SET", makeArgs("k", "v3", "XX"))
	if string(res.String) != "OK" {
		t.Errorf("SET XX on existing key = %v, want OK", res)
	}

	// PX attaches a TTL that PTTL can observe
	res = e.Execute("SET", makeArgs("tmp", "v", "PX", "60000"))
	if string(res.String) != "OK" {
		t.Fatalf("SET PX = %v, want OK", res)
	}
	res = e.Execute("PTTL", makeArgs("tmp"))
	if res.Integer <= 0 || res.Integer > 60000 {
		t.Errorf("PTTL = %d, want within (0, 60000]", res.Integer)
	}

	res = e.Execute("SET", makeArgs("k", "v", "NX", "XX"))
	if res.Type != resp.TypeError {
		t.Errorf("SET NX XX should be a syntax error, got %v", res)
	}
}

func TestExpiredKeyReadsAsMissing(t *testing.T) {
	e := setupEngine(t)

	e.Execute("SET", makeArgs("tmp", "v", "PX", "1"))
	time.Sleep(5 * time.Millisecond)

	res := e.Execute("GET", makeArgs("tmp"))
	if !res.IsNull {
		t.Errorf("expected expired key to read as null, got %v", res)
	}
	res = e.Execute("TTL", makeArgs("tmp"))
	if res.Integer != int64(store.ExpNotFound) {
		t.Errorf("TTL on expired key = %d, want %d", res.Integer, store.ExpNotFound)
	}
}

func TestWrongTypeErrors(t *testing.T) {
	e := setupEngine(t)

	e.Execute("SET", makeArgs("str", "v"))

	for _, cmd := range []struct {
		name string
		args []string
	}{
		{"LPUSH", []string{"str", "x"}},
		{"HSET", []string{"str", "f", "v"}},
		{"LLEN", []string{"str"}},
		{"HGETALL", []string{"str"}},
	} {
		res := e.Execute(cmd.name, makeArgs(cmd.args...))
		if res.Type != resp.TypeError {
			t.Errorf("%s against a string: got %v, want WRONGTYPE error", cmd.name, res)
		}
	}
}

func TestIncrDecr(t *testing.T) {
	e := setupEngine(t)

	if res := e.Execute("INCR", makeArgs("n")); res.Integer != 1 {
		t.Errorf("INCR fresh key = %d, want 1", res.Integer)
	}
	if res := e.Execute("INCRBY", makeArgs("n", "9")); res.Integer != 10 {
		t.Errorf("INCRBY = %d, want 10", res.Integer)
	}
	if res := e.Execute("DECRBY", makeArgs("n", "4")); res.Integer != 6 {
		t.Errorf("DECRBY = %d, want 6", res.Integer)
	}
	if res := e.Execute("DECR", makeArgs("n")); res.Integer != 5 {
		t.Errorf("DECR = %d, want 5", res.Integer)
	}

	e.Execute("SET", makeArgs("s", "abc"))
	if res := e.Execute("INCR", makeArgs("s")); res.Type != resp.TypeError {
		t.Errorf("INCR on non-number should error, got %v", res)
	}
}

func TestHashCommands(t *testing.T) {
	e := setupEngine(t)

	if res := e.Execute("HSET", makeArgs("h", "f1", "v1", "f2", "v2")); res.Integer != 2 {
		t.Errorf("HSET two new fields = %d, want 2", res.Integer)
	}
	// overwriting an existing field counts zero
	if res := e.Execute("HSET", makeArgs("h", "f1", "changed")); res.Integer != 0 {
		t.Errorf("HSET overwrite = %d, want 0", res.Integer)
	}

	if res := e.Execute("HGET", makeArgs("h", "f1")); string(res.String) != "changed" {
		t.Errorf("HGET = %q, want %q", res.String, "changed")
	}
	if res := e.Execute("HLEN", makeArgs("h")); res.Integer != 2 {
		t.Errorf("HLEN = %d, want 2", res.Integer)
	}
	if res := e.Execute("HEXISTS", makeArgs("h", "f2")); res.Integer != 1 {
		t.Errorf("HEXISTS = %d, want 1", res.Integer)
	}

	if res := e.Execute("HDEL", makeArgs("h", "f1", "f2")); res.Integer != 2 {
		t.Errorf("HDEL = %d, want 2", res.Integer)
	}
	// key is gone once the last field is deleted
	if res := e.Execute("EXISTS", makeArgs("h")); res.Integer != 0 {
		t.Errorf("hash key should vanish when empty, EXISTS = %d", res.Integer)
	}
}

func TestHashMultiCommands(t *testing.T) {
	e := setupEngine(t)

	// HMSET applies like HSET but replies OK
	res := e.Execute("HMSET", makeArgs("h", "f1", "v1", "f2", "v2"))
	if res.Type != resp.TypeSimpleString || string(res.String) != "OK" {
		t.Fatalf("HMSET reply = %v, want +OK", res)
	}

	// HMGET keeps field order and nulls the missing ones
	res = e.Execute("HMGET", makeArgs("h", "f2", "nope", "f1"))
	if len(res.Array) != 3 {
		t.Fatalf("HMGET returned %d entries, want 3", len(res.Array))
	}
	if string(res.Array[0].String) != "v2" || string(res.Array[2].String) != "v1" {
		t.Errorf("HMGET = %v", res.Array)
	}
	if !res.Array[1].IsNull {
		t.Errorf("HMGET missing field = %v, want null", res.Array[1])
	}

	// HSETNX writes only absent fields
	if res := e.Execute("HSETNX", makeArgs("h", "f3", "v3")); res.Integer != 1 {
		t.Errorf("HSETNX new field = %d, want 1", res.Integer)
	}
	if res := e.Execute("HSETNX", makeArgs("h", "f3", "other")); res.Integer != 0 {
		t.Errorf("HSETNX existing field = %d, want 0", res.Integer)
	}
	if res := e.Execute("HGET", makeArgs("h", "f3")); string(res.String) != "v3" {
		t.Errorf("refused HSETNX changed the field: %q", res.String)
	}
}

func TestMSetNXCommand(t *testing.T) {
	e := setupEngine(t)

	if res := e.Execute("MSETNX", makeArgs("a", "1", "b", "2")); res.Integer != 1 {
		t.Fatalf("MSETNX fresh keys = %d, want 1", res.Integer)
	}
	if res := e.Execute("MSETNX", makeArgs("c", "3", "a", "x")); res.Integer != 0 {
		t.Errorf("MSETNX with existing key = %d, want 0", res.Integer)
	}
	if res := e.Execute("GET", makeArgs("c")); !res.IsNull {
		t.Errorf("refused MSETNX wrote a key: %v", res)
	}
	if res := e.Execute("MSETNX", makeArgs("a", "1", "odd")); res.Type != resp.TypeError {
		t.Errorf("MSETNX with odd argument count should error, got %v", res)
	}
}

func TestListCommands(t *testing.T) {
	e := setupEngine(t)

	e.Execute("LPUSH", makeArgs("l", "a"))
	e.Execute("RPUSH", makeArgs("l", "b"))

	res := e.Execute("LRANGE", makeArgs("l", "0", "-1"))
	if len(res.Array) != 2 || string(res.Array[0].String) != "a" || string(res.Array[1].String) != "b" {
		t.Fatalf("LRANGE after LPUSH a / RPUSH b = %v, want [a b]", res.Array)
	}

	if res := e.Execute("LLEN", makeArgs("l")); res.Integer != 2 {
		t.Errorf("LLEN = %d, want 2", res.Integer)
	}
	if res := e.Execute("LINDEX", makeArgs("l", "-1")); string(res.String) != "b" {
		t.Errorf("LINDEX -1 = %q, want %q", res.String, "b")
	}

	if res := e.Execute("LPOP", makeArgs("l")); string(res.String) != "a" {
		t.Errorf("LPOP = %q, want %q", res.String, "a")
	}
	if res := e.Execute("RPOP", makeArgs("l")); string(res.String) != "b" {
		t.Errorf("RPOP = %q, want %q", res.String, "b")
	}
	if res := e.Execute("LPOP", makeArgs("l")); !res.IsNull {
		t.Errorf("LPOP on empty list = %v, want null", res)
	}

	if res := e.Execute("LSET", makeArgs("l", "0", "x")); res.Type != resp.TypeError {
		t.Errorf("LSET on missing key should error, got %v", res)
	}
}

func TestPublishCountsTopics(t *testing.T) {
	e := setupEngine(t)

	if res := e.Execute("PUBLISH", makeArgs("news", "hi")); res.Integer != 0 {
		t.Errorf("PUBLISH with no subscribers = %d, want 0", res.Integer)
	}
}

func TestUnknownCommand(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute("FLUSHDB", nil)
	if res.Type != resp.TypeError {
		t.Errorf("unknown command should produce an error, got %v", res)
	}
}
