package persistence

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lunardb/lunar/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRDB(t *testing.T) *RDB {
	t.Helper()
	return NewRDB(filepath.Join(t.TempDir(), "dump.rdb"), zap.NewNop())
}

func TestRDB_RoundTrip(t *testing.T) {
	r := newTestRDB(t)

	src := store.New()
	src.Set("str", "value", time.Hour)
	src.RPush("list", "a", "b", "c") //nolint:errcheck
	src.HSet("hash", "f1", "v1")     //nolint:errcheck
	src.HSet("hash", "f2", "v2")     //nolint:errcheck
	src.Set("gone", "x", time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, r.Save(src))

	dst := store.New()
	require.NoError(t, r.Load(dst))

	v, ok, err := dst.GetString("str")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	// expiration survives as an absolute timestamp still in the future
	ms, st := dst.PTTL("str")
	assert.Equal(t, store.ExpActive, st)
	assert.Positive(t, ms)

	list, err := dst.LRange("list", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, list)

	hash, err := dst.HGetAll("hash")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1", "f2": "v2"}, hash)

	// dead at dump time: never serialized, absent after load
	assert.False(t, dst.Exists("gone"))
	assert.Equal(t, 3, dst.Len())
}

// Collection records merge into a pre-existing key of the same type, so a
// snapshot can be layered over state the log replay already rebuilt.
func TestRDB_LoadMergesCollections(t *testing.T) {
	r := newTestRDB(t)

	src := store.New()
	src.RPush("list", "from-snapshot") //nolint:errcheck
	src.HSet("hash", "snap", "1")      //nolint:errcheck
	require.NoError(t, r.Save(src))

	dst := store.New()
	dst.RPush("list", "from-replay") //nolint:errcheck
	dst.HSet("hash", "replay", "1")  //nolint:errcheck
	require.NoError(t, r.Load(dst))

	list, err := dst.LRange("list", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"from-replay", "from-snapshot"}, list)

	hash, err := dst.HGetAll("hash")
	require.NoError(t, err)
	assert.Len(t, hash, 2)
}

// An entry whose expiration falls on the exact dump instant is already
// dead, matching the store's own now >= ExpireAt convention.
func TestRDB_ExpiryBoundaryIsDead(t *testing.T) {
	var buf bytes.Buffer
	e := &store.Entry{Type: store.TypeString, Value: "v", ExpireAt: 1000}

	require.NoError(t, writeEntry(&buf, "k", e, 1000))
	assert.Zero(t, buf.Len(), "boundary entry must not be serialized")

	require.NoError(t, writeEntry(&buf, "k", e, 999))
	assert.Positive(t, buf.Len(), "entry with time left must be serialized")
}

func TestRDB_LoadRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.rdb")
	require.NoError(t, os.WriteFile(path, []byte("NOTRDB0001junk"), 0644))

	r := NewRDB(path, zap.NewNop())
	err := r.Load(store.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid snapshot header")
}

func TestRDB_LoadMissingFileIsFreshStart(t *testing.T) {
	r := newTestRDB(t)
	require.NoError(t, r.Load(store.New()))
}

func TestRDB_SaveRejectsOversizedKey(t *testing.T) {
	r := newTestRDB(t)

	s := store.New()
	s.Set(strings.Repeat("k", 256), "v", 0)

	err := r.Save(s)
	require.Error(t, err, "the 1-byte length format caps keys at 255 bytes")
	assert.Contains(t, err.Error(), "255")
}

func TestRDB_SaveIsAtomic(t *testing.T) {
	r := newTestRDB(t)

	first := store.New()
	first.Set("k", "v1", 0)
	require.NoError(t, r.Save(first))

	// second save with an unserializable entry must not clobber the file
	second := store.New()
	second.Set("k", "v2", 0)
	second.Set(strings.Repeat("x", 300), "v", 0)
	require.Error(t, r.Save(second))

	dst := store.New()
	require.NoError(t, r.Load(dst))
	v, _, _ := dst.GetString("k")
	assert.Equal(t, "v1", v)
}
