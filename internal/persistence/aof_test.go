package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lunardb/lunar/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAOF(t *testing.T) (*AOF, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appendonly.aof")
	a, err := NewAOF(path, time.Hour, zap.NewNop()) // flush manually in tests
	require.NoError(t, err)
	return a, path
}

func TestAOF_WriteAndReplay(t *testing.T) {
	a, path := newTestAOF(t)

	src := store.New()
	src.AttachWAL(a)

	src.Set("foo", "bar", 0)
	src.HSet("h", "f", "v") //nolint:errcheck
	src.LPush("l", "a")     //nolint:errcheck
	src.RPush("l", "b")     //nolint:errcheck
	src.Del("foo")
	src.Set("foo", "baz", 0)

	require.NoError(t, a.Close())

	dst := store.New()
	applied, err := Replay(path, dst, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 6, applied)

	v, ok, err := dst.GetString("foo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "baz", v)

	hv, ok, err := dst.HGet("h", "f")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", hv)

	list, err := dst.LRange("l", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)
}

func TestAOF_ReplayAbsoluteExpiration(t *testing.T) {
	a, path := newTestAOF(t)

	src := store.New()
	src.AttachWAL(a)
	src.Set("future", "v", time.Hour)
	src.Set("past", "v", time.Millisecond)
	require.NoError(t, a.Close())

	time.Sleep(5 * time.Millisecond)

	dst := store.New()
	_, err := Replay(path, dst, zap.NewNop())
	require.NoError(t, err)

	// absolute timestamps survive the restart: the long TTL is still
	// running, the elapsed one is dead even though replay ran "later"
	ms, st := dst.PTTL("future")
	assert.Equal(t, store.ExpActive, st)
	assert.LessOrEqual(t, ms, time.Hour.Milliseconds())

	_, ok, err := dst.GetString("past")
	require.NoError(t, err)
	assert.False(t, ok, "entry expired before replay must stay dead")
}

// Replaying the same log twice equals replaying it once for records that
// encode absolute target state.
func TestAOF_ReplayIdempotence(t *testing.T) {
	a, path := newTestAOF(t)

	src := store.New()
	src.AttachWAL(a)
	src.Set("k", "v1", 0)
	src.Set("k", "v2", 0)
	src.HSet("h", "f", "x")  //nolint:errcheck
	src.IncrBy("counter", 5) //nolint:errcheck
	require.NoError(t, a.Close())

	dst := store.New()
	_, err := Replay(path, dst, zap.NewNop())
	require.NoError(t, err)
	_, err = Replay(path, dst, zap.NewNop())
	require.NoError(t, err)

	v, _, _ := dst.GetString("k")
	assert.Equal(t, "v2", v)
	hv, _, _ := dst.HGet("h", "f")
	assert.Equal(t, "x", hv)
	c, _, _ := dst.GetString("counter")
	assert.Equal(t, "5", c, "IncrBy is logged as absolute state, so double replay must not double the counter")
}

// Every mutating list command is logged, so replay reproduces the exact
// push/pop sequence, including RPOP and LTRIM.
func TestAOF_ListCommandsAllReplayable(t *testing.T) {
	a, path := newTestAOF(t)

	src := store.New()
	src.AttachWAL(a)
	src.RPush("l", "a", "b", "c", "d", "e") //nolint:errcheck
	src.RPop("l")                           //nolint:errcheck
	src.LSet("l", 0, "A")                   //nolint:errcheck
	src.LTrim("l", 0, 2)                    //nolint:errcheck
	src.LRem("l", 1, "b")                   //nolint:errcheck
	require.NoError(t, a.Close())

	want, err := src.LRange("l", 0, -1)
	require.NoError(t, err)

	dst := store.New()
	_, err = Replay(path, dst, zap.NewNop())
	require.NoError(t, err)

	got, err := dst.LRange("l", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// An empty string is a valid value; its record frames as $0 with an empty
// payload line, which must not desynchronize the reader and swallow the
// record that follows it.
func TestAOF_ReplayEmptyValues(t *testing.T) {
	a, path := newTestAOF(t)

	src := store.New()
	src.AttachWAL(a)
	src.Set("empty", "", 0)
	src.Set("next", "v", 0)
	src.HSet("h", "f", "") //nolint:errcheck
	require.NoError(t, a.Close())

	dst := store.New()
	applied, err := Replay(path, dst, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	v, ok, err := dst.GetString("empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", v)

	v, ok, _ = dst.GetString("next")
	assert.True(t, ok, "record after an empty-value record must survive replay")
	assert.Equal(t, "v", v)

	hv, ok, _ := dst.HGet("h", "f")
	assert.True(t, ok)
	assert.Equal(t, "", hv)
}

func TestAOF_ReplaySkipsMalformedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dirty.aof")

	good := "*3\r\n$3\r\nset\r\n$1\r\nk\r\n$2\r\nv1\r\n"
	junk := "this is not a record\r\n"
	short := "*9\r\n$3\r\nset\r\n" // claims 9 fields, provides 1
	good2 := "*3\r\n$3\r\nset\r\n$2\r\nk2\r\n$2\r\nv2\r\n"
	require.NoError(t, os.WriteFile(path, []byte(good+junk+good2+short), 0644))

	dst := store.New()
	applied, err := Replay(path, dst, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	v, _, _ := dst.GetString("k")
	assert.Equal(t, "v1", v)
	v, _, _ = dst.GetString("k2")
	assert.Equal(t, "v2", v)
}

func TestAOF_ReplayMissingFileIsFreshStart(t *testing.T) {
	applied, err := Replay(filepath.Join(t.TempDir(), "nope.aof"), store.New(), zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, applied)
}
