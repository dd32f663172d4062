// Package store implements the typed, mutex-protected key-value storage
// behind every command, plus the pub/sub channel registry.
//
// A single coarse lock guards the whole map: one command's worth of work
// holds it for its entire duration, so a command either fully applies or
// has no effect. Mutating operations emit their own append-only-log record
// via the attached Appender while the lock is still held, which keeps log
// order equal to mutation order. The log has its own lock, so "mutate" and
// "record" are two critical sections, not one transaction: a crash between
// them can lose the record for a mutation that already happened.
package store

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

var (
	ErrWrongType     = errors.New("operation against a key holding the wrong kind of value")
	ErrNotInteger    = errors.New("value is not an integer or out of range")
	ErrNoSuchKey     = errors.New("no such key")
	ErrIndexOutRange = errors.New("index out of range")
)

type ExpiryStatus int

const (
	// ExpNotFound means that the key does not exist
	ExpNotFound ExpiryStatus = -2
	// ExpNoTimeout means that the key exists, but it does not have a TTL
	ExpNoTimeout ExpiryStatus = -1
	// ExpActive means that the key has an active lifetime
	ExpActive ExpiryStatus = 1
)

// Appender receives one record per accepted mutation. All emission goes
// through the store; handlers never call the log directly.
type Appender interface {
	Propagate(cmd string, args ...string)
}

// Store is the authoritative, thread-safe data structure behind every command.
type Store struct {
	mu       sync.Mutex
	data     map[string]*Entry
	channels map[string]*Topic
	patterns map[string]*Topic
	wal      Appender
}

func New() *Store {
	return &Store{
		data:     make(map[string]*Entry),
		channels: make(map[string]*Topic),
		patterns: make(map[string]*Topic),
	}
}

// AttachWAL connects the append-only log. Until it is attached (e.g. during
// snapshot load and log replay) mutations are not recorded.
func (s *Store) AttachWAL(a Appender) {
	s.mu.Lock()
	s.wal = a
	s.mu.Unlock()
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// propagate must be called with s.mu held.
func (s *Store) propagate(cmd string, args ...string) {
	if s.wal != nil {
		s.wal.Propagate(cmd, args...)
	}
}

// entryLocked returns the live entry for key, lazily evicting it if its
// expiration has passed. Must be called with s.mu held.
func (s *Store) entryLocked(key string) (*Entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if e.expired(nowMs()) {
		delete(s.data, key)
		return nil, false
	}
	return e, true
}

// Set stores a string value, replacing any prior entry regardless of its
// type. A positive ttl becomes an absolute expiration of now + ttl.
func (s *Store) Set(key, value string, ttl time.Duration) {
	var expireAt int64
	if ttl > 0 {
		expireAt = nowMs() + ttl.Milliseconds()
	}
	s.SetAt(key, value, expireAt)
}

// SetAt stores a string value with an absolute expiration in unix
// milliseconds (0 = never). The emitted log record carries the absolute
// timestamp and replay interprets it as absolute.
func (s *Store) SetAt(key, value string, expireAt int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(key, value, expireAt)
}

// SetNX stores the value only if the key is absent (or expired). Reports
// whether the write happened. The presence check and the write are one
// critical section.
func (s *Store) SetNX(key, value string, expireAt int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entryLocked(key); ok {
		return false
	}
	s.setLocked(key, value, expireAt)
	return true
}

// SetXX stores the value only if the key already exists. Reports whether
// the write happened.
func (s *Store) SetXX(key, value string, expireAt int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entryLocked(key); !ok {
		return false
	}
	s.setLocked(key, value, expireAt)
	return true
}

// MSetNX stores the flat key-value pairs only if none of the keys hold a
// live entry. All presence checks and all writes are one critical section,
// so the operation is all-or-nothing. Reports whether the writes happened.
func (s *Store) MSetNX(kvs ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i+1 < len(kvs); i += 2 {
		if _, ok := s.entryLocked(kvs[i]); ok {
			return false
		}
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		s.setLocked(kvs[i], kvs[i+1], 0)
	}
	return true
}

// setLocked must be called with s.mu held.
func (s *Store) setLocked(key, value string, expireAt int64) {
	s.data[key] = &Entry{Type: TypeString, Value: value, ExpireAt: expireAt}
	s.propagateSetLocked(key, value, expireAt)
}

// GetString returns the string value for key. ErrWrongType if the key holds
// a collection.
func (s *Store) GetString(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return "", false, nil
	}
	if e.Type != TypeString {
		return "", false, ErrWrongType
	}
	return e.Str(), true, nil
}

// Type reports the data type of a live key.
func (s *Store) Type(key string) (DataType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return 0, false
	}
	return e.Type, true
}

// Exists reports whether a live entry exists; an expired entry found during
// the check is evicted.
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entryLocked(key)
	return ok
}

// Del removes a live entry. Returns true iff one existed.
func (s *Store) Del(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entryLocked(key); !ok {
		return false
	}
	delete(s.data, key)
	s.propagate("del", key)
	return true
}

// PTTL returns the remaining lifetime in milliseconds and its status.
func (s *Store) PTTL(key string) (int64, ExpiryStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		return 0, ExpNotFound
	}
	if e.ExpireAt == 0 {
		return 0, ExpNoTimeout
	}
	return e.ExpireAt - nowMs(), ExpActive
}

// Append appends to a string value, creating the key if absent, and returns
// the resulting length. The log receives the effective absolute state.
func (s *Store) Append(key, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		s.data[key] = &Entry{Type: TypeString, Value: value}
		s.propagate("set", key, value)
		return int64(len(value)), nil
	}
	if e.Type != TypeString {
		return 0, ErrWrongType
	}

	next := e.Str() + value
	e.Value = next
	s.propagateSetLocked(key, next, e.ExpireAt)
	return int64(len(next)), nil
}

// IncrBy adds delta to the integer value of key, creating it at 0 if absent.
// The log receives the effective absolute state, so replay is idempotent.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entryLocked(key)
	if !ok {
		e = &Entry{Type: TypeString, Value: "0"}
		s.data[key] = e
	}
	if e.Type != TypeString {
		return 0, ErrWrongType
	}

	cur, err := strconv.ParseInt(e.Str(), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	next := cur + delta
	val := strconv.FormatInt(next, 10)
	e.Value = val
	s.propagateSetLocked(key, val, e.ExpireAt)
	return next, nil
}

// propagateSetLocked logs the absolute resulting state of a string mutation.
func (s *Store) propagateSetLocked(key, value string, expireAt int64) {
	if expireAt > 0 {
		s.propagate("set", key, value, strconv.FormatInt(expireAt, 10))
	} else {
		s.propagate("set", key, value)
	}
}

// Restore places an entry directly, bypassing the log. Snapshot load uses it
// for string records; expiration is absolute milliseconds.
func (s *Store) Restore(key string, typ DataType, value interface{}, expireAt int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = &Entry{Type: typ, Value: value, ExpireAt: expireAt}
}

// Range calls fn for every entry, expired or not, while holding the store
// lock for the whole iteration. Snapshotting stops the world.
func (s *Store) Range(fn func(key string, e *Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.data {
		fn(key, e)
	}
}

// Len returns the number of physically resident entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// DeleteExpired removes every entry whose expiration has passed, independent
// of whether it is ever read again. Returns the number removed.
func (s *Store) DeleteExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMs()
	removed := 0
	for key, e := range s.data {
		if e.expired(now) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}
