package server

import (
	"strings"

	"github.com/lunardb/lunar/internal/resp"
)

type commandMetadata struct {
	arity    int      // Arity includes the command name itself
	flags    []string // read, write, fast, denyoom, etc
	firstKey int      // 1-based index of the first key
	lastKey  int      // 1-based index of the last key
	step     int      // Step count for finding keys
}

var commandRegistry = map[string]commandMetadata{
	"PING":    {-1, []string{"fast", "stale"}, 0, 0, 0},
	"ECHO":    {2, []string{"fast"}, 0, 0, 0},
	"COMMAND": {-1, []string{"random", "loading", "stale"}, 0, 0, 0},

	"GET":    {2, []string{"readonly", "fast"}, 1, 1, 1},
	"SET":    {-3, []string{"write", "denyoom"}, 1, 1, 1},
	"STRLEN": {2, []string{"readonly", "fast"}, 1, 1, 1},
	"APPEND": {3, []string{"write", "denyoom"}, 1, 1, 1},
	"INCR":   {2, []string{"write", "fast"}, 1, 1, 1},
	"DECR":   {2, []string{"write", "fast"}, 1, 1, 1},
	"INCRBY": {3, []string{"write", "fast"}, 1, 1, 1},
	"DECRBY": {3, []string{"write", "fast"}, 1, 1, 1},
	"MGET":   {-2, []string{"readonly", "fast"}, 1, -1, 1},
	"MSET":   {-3, []string{"write", "denyoom"}, 1, -1, 2},
	"MSETNX": {-3, []string{"write", "denyoom"}, 1, -1, 2},

	"DEL":    {-2, []string{"write"}, 1, -1, 1},
	"EXISTS": {-2, []string{"readonly", "fast"}, 1, -1, 1},
	"TTL":    {2, []string{"readonly", "fast"}, 1, 1, 1},
	"PTTL":   {2, []string{"readonly", "fast"}, 1, 1, 1},

	"HSET":    {-4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
	"HSETNX":  {4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
	"HMSET":   {-4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
	"HGET":    {3, []string{"readonly", "fast"}, 1, 1, 1},
	"HMGET":   {-3, []string{"readonly", "fast"}, 1, 1, 1},
	"HDEL":    {-3, []string{"write", "fast"}, 1, 1, 1},
	"HGETALL": {2, []string{"readonly"}, 1, 1, 1},
	"HEXISTS": {3, []string{"readonly", "fast"}, 1, 1, 1},
	"HLEN":    {2, []string{"readonly", "fast"}, 1, 1, 1},
	"HKEYS":   {2, []string{"readonly"}, 1, 1, 1},
	"HVALS":   {2, []string{"readonly"}, 1, 1, 1},

	"LPUSH":  {-3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
	"RPUSH":  {-3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
	"LPOP":   {2, []string{"write", "fast"}, 1, 1, 1},
	"RPOP":   {2, []string{"write", "fast"}, 1, 1, 1},
	"LLEN":   {2, []string{"readonly", "fast"}, 1, 1, 1},
	"LRANGE": {4, []string{"readonly"}, 1, 1, 1},
	"LINDEX": {3, []string{"readonly"}, 1, 1, 1},
	"LSET":   {4, []string{"write", "denyoom"}, 1, 1, 1},
	"LREM":   {4, []string{"write"}, 1, 1, 1},
	"LTRIM":  {4, []string{"write"}, 1, 1, 1},

	"SUBSCRIBE":  {-2, []string{"pubsub", "loading", "stale"}, 0, 0, 0},
	"PSUBSCRIBE": {-2, []string{"pubsub", "loading", "stale"}, 0, 0, 0},
	"PUBLISH":    {3, []string{"pubsub", "loading", "stale", "fast"}, 0, 0, 0},

	"SAVE":   {1, []string{"admin", "noscript"}, 0, 0, 0},
	"BGSAVE": {-1, []string{"admin", "noscript"}, 0, 0, 0},
}

// commandDoc stores a description for the command
type commandDoc struct {
	summary    string
	complexity string
	group      string
	since      string
}

// commandDocsRegistry documentation registry
var commandDocsRegistry = map[string]commandDoc{
	"PING":    {"Ping the server.", "O(1)", "connection", "1.0.0"},
	"ECHO":    {"Echo the given string.", "O(1)", "connection", "1.0.0"},
	"COMMAND": {"Get array of command details.", "O(N) where N is the number of commands to look up.", "server", "1.0.0"},

	"GET":    {"Get the value of a key.", "O(1)", "string", "1.0.0"},
	"SET":    {"Set the string value of a key.", "O(1)", "string", "1.0.0"},
	"STRLEN": {"Get the length of the value stored in a key.", "O(1)", "string", "1.0.0"},
	"APPEND": {"Append a value to a key.", "O(1)", "string", "1.0.0"},
	"INCR":   {"Increment the integer value of a key by one.", "O(1)", "string", "1.0.0"},
	"DECR":   {"Decrement the integer value of a key by one.", "O(1)", "string", "1.0.0"},
	"INCRBY": {"Increment the integer value of a key by the given amount.", "O(1)", "string", "1.0.0"},
	"DECRBY": {"Decrement the integer value of a key by the given amount.", "O(1)", "string", "1.0.0"},
	"MGET":   {"Get the values of all the given keys.", "O(N) where N is the number of keys to retrieve.", "string", "1.0.0"},
	"MSET":   {"Set multiple keys to multiple values.", "O(N) where N is the number of keys to set.", "string", "1.0.0"},
	"MSETNX": {"Set multiple keys to multiple values, only if none of the keys exist.", "O(N) where N is the number of keys to set.", "string", "1.0.1"},

	"DEL":    {"Delete a key.", "O(N) where N is the number of keys that will be removed.", "generic", "1.0.0"},
	"EXISTS": {"Determine if a key exists.", "O(N) where N is the number of keys to check.", "generic", "1.0.0"},
	"TTL":    {"Get the time to live for a key in seconds.", "O(1)", "generic", "1.0.0"},
	"PTTL":   {"Get the time to live for a key in milliseconds.", "O(1)", "generic", "1.0.0"},

	"HSET":    {"Set the string value of a hash field.", "O(1) for each field/value pair added.", "hash", "1.0.0"},
	"HSETNX":  {"Set the value of a hash field, only if the field does not exist.", "O(1)", "hash", "2.0.0"},
	"HMSET":   {"Set multiple hash fields to multiple values.", "O(N) where N is the number of fields being set.", "hash", "2.0.0"},
	"HGET":    {"Get the value of a hash field.", "O(1)", "hash", "1.0.0"},
	"HMGET":   {"Get the values of all the given hash fields.", "O(N) where N is the number of fields being requested.", "hash", "2.0.0"},
	"HDEL":    {"Delete one or more hash fields.", "O(N) where N is the number of fields to be removed.", "hash", "1.0.0"},
	"HGETALL": {"Get all the fields and values in a hash.", "O(N) where N is the size of the hash.", "hash", "1.0.0"},
	"HEXISTS": {"Determine if a hash field exists.", "O(1)", "hash", "1.0.0"},
	"HLEN":    {"Get the number of fields in a hash.", "O(1)", "hash", "1.0.0"},
	"HKEYS":   {"Get all the fields in a hash.", "O(N) where N is the size of the hash.", "hash", "1.0.0"},
	"HVALS":   {"Get all the values in a hash.", "O(N) where N is the size of the hash.", "hash", "1.0.0"},

	"LPUSH":  {"Prepend one or multiple elements to a list.", "O(1) for each element added.", "list", "1.0.0"},
	"RPUSH":  {"Append one or multiple elements to a list.", "O(1) for each element added.", "list", "1.0.0"},
	"LPOP":   {"Remove and get the first element in a list.", "O(1)", "list", "1.0.0"},
	"RPOP":   {"Remove and get the last element in a list.", "O(1)", "list", "1.0.0"},
	"LLEN":   {"Get the length of a list.", "O(1)", "list", "1.0.0"},
	"LRANGE": {"Get a range of elements from a list.", "O(N) where N is the number of elements in the range.", "list", "1.0.0"},
	"LINDEX": {"Get an element from a list by its index.", "O(N) where N is the index.", "list", "1.0.0"},
	"LSET":   {"Set the value of an element in a list by its index.", "O(N) where N is the index.", "list", "1.0.0"},
	"LREM":   {"Remove elements from a list.", "O(N) where N is the length of the list.", "list", "1.0.0"},
	"LTRIM":  {"Trim a list to the specified range.", "O(N) where N is the number of elements removed.", "list", "1.0.0"},

	"SUBSCRIBE":  {"Listen for messages published to the given channels.", "O(N) where N is the number of channels.", "pubsub", "1.0.0"},
	"PSUBSCRIBE": {"Listen for messages published to channels matching the given patterns.", "O(N) where N is the number of patterns.", "pubsub", "1.0.0"},
	"PUBLISH":    {"Post a message to a channel.", "O(N+M) where N is the number of subscribers and M the number of patterns.", "pubsub", "1.0.0"},

	"SAVE":   {"Synchronously save the dataset to disk.", "O(N) where N is the total number of keys.", "server", "1.0.0"},
	"BGSAVE": {"Asynchronously save the dataset to disk.", "O(N) where N is the total number of keys.", "server", "1.0.0"},
}

func makeFlagsArray(flags []string) resp.Value {
	vals := make([]resp.Value, len(flags))
	for i, f := range flags {
		vals[i] = resp.MakeSimpleString(f)
	}
	return resp.MakeArray(vals)
}

func makeInfoCmdArray(name string) []resp.Value {
	return []resp.Value{
		resp.MakeBulkString(name),
		resp.MakeInteger(int64(commandRegistry[name].arity)),
		makeFlagsArray(commandRegistry[name].flags),
		resp.MakeInteger(int64(commandRegistry[name].firstKey)),
		resp.MakeInteger(int64(commandRegistry[name].lastKey)),
		resp.MakeInteger(int64(commandRegistry[name].step)),
	}
}

func getAllCommands() resp.Value {
	cmdArray := make([]resp.Value, 0, len(commandRegistry))
	for name := range commandRegistry {
		details := makeInfoCmdArray(name)
		cmdArray = append(cmdArray, resp.MakeArray(details))
	}
	return resp.MakeArray(cmdArray)
}

// getCommandsDocs returns documentation for specified commands or all commands
// Format: [Name, [Summary, val, Since, val...], Name, [...]]
func getCommandsDocs(args []resp.Value) resp.Value {
	var targets []string

	if len(args) == 0 {
		targets = make([]string, 0, len(commandDocsRegistry))
		for name := range commandDocsRegistry {
			targets = append(targets, name)
		}
	} else {
		targets = make([]string, 0, len(args))
		for _, arg := range args {
			targets = append(targets, strings.ToUpper(string(arg.String)))
		}
	}

	result := make([]resp.Value, 0, len(targets)*2)

	for _, name := range targets {
		doc, ok := commandDocsRegistry[name]
		if !ok {
			continue
		}

		result = append(result, resp.MakeBulkString(name))

		props := []resp.Value{
			resp.MakeBulkString("summary"),
			resp.MakeBulkString(doc.summary),
			resp.MakeBulkString("since"),
			resp.MakeBulkString(doc.since),
			resp.MakeBulkString("group"),
			resp.MakeBulkString(doc.group),
			resp.MakeBulkString("complexity"),
			resp.MakeBulkString(doc.complexity),
		}

		result = append(result, resp.MakeArray(props))
	}

	return resp.MakeArray(result)
}
