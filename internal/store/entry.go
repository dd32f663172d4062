package store

// DataType identifies the kind of value held by an Entry. Type is fixed for
// the life of a key; changing type requires delete-then-recreate.
type DataType byte

const (
	TypeString DataType = iota + 1
	TypeList
	TypeHash
	// Reserved for snapshot-format compatibility, never constructed.
	TypeSet
	TypeZSet
)

// Entry is a stored key's typed value plus its optional expiration.
// ExpireAt is an absolute wall-clock timestamp in unix milliseconds;
// 0 means the entry never expires. An entry is logically absent once
// now >= ExpireAt even while still physically resident.
type Entry struct {
	Type     DataType
	Value    interface{} // string, []string or map[string]string
	ExpireAt int64
}

func (e *Entry) expired(nowMs int64) bool {
	return e.ExpireAt != 0 && nowMs >= e.ExpireAt
}

// Str returns the string payload. Callers must have checked Type.
func (e *Entry) Str() string {
	return e.Value.(string)
}

// List returns the list payload. Callers must have checked Type.
func (e *Entry) List() []string {
	return e.Value.([]string)
}

// Hash returns the hash payload. Callers must have checked Type.
func (e *Entry) Hash() map[string]string {
	return e.Value.(map[string]string)
}
