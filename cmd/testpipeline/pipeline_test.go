package testpipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a running server on 127.0.0.1:6380.

func newClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6380",
	})
}

func TestPipelining(t *testing.T) {
	rdb := newClient()
	defer rdb.Close()

	ctx := context.Background()

	count := 10_000
	pipe := rdb.Pipeline()

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("pipe_key_%d", i)
		val := fmt.Sprintf("val_%d", i)
		pipe.Set(ctx, key, val, 0)
	}

	getResults := make([]*redis.StringCmd, count)
	for i := 0; i < count; i++ {
		key := fmt.Sprintf("pipe_key_%d", i)
		getResults[i] = pipe.Get(ctx, key)
	}

	start := time.Now()
	_, err := pipe.Exec(ctx)
	elapsed := time.Since(start)

	assert.NoError(t, err, "Pipeline execution failed")
	fmt.Printf("Pipeline executed in %v\n", elapsed)

	for i := 0; i < count; i++ {
		expected := fmt.Sprintf("val_%d", i)
		val, err := getResults[i].Result()

		assert.NoError(t, err)
		assert.Equal(t, expected, val, "Key %d mismatch", i)
	}
}

func TestCollectionsOverTheWire(t *testing.T) {
	rdb := newClient()
	defer rdb.Close()

	ctx := context.Background()

	rdb.Del(ctx, "wire_list", "wire_hash")

	require.NoError(t, rdb.LPush(ctx, "wire_list", "a").Err())
	require.NoError(t, rdb.RPush(ctx, "wire_list", "b", "c").Err())

	list, err := rdb.LRange(ctx, "wire_list", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, list)

	popped, err := rdb.RPop(ctx, "wire_list").Result()
	require.NoError(t, err)
	assert.Equal(t, "c", popped)

	n, err := rdb.HSet(ctx, "wire_hash", "f1", "v1", "f2", "v2").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	all, err := rdb.HGetAll(ctx, "wire_hash").Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1", "f2": "v2"}, all)

	// type stays fixed until the key is deleted
	err = rdb.LPush(ctx, "wire_hash", "x").Err()
	assert.Error(t, err)
}

func TestPubSubOverTheWire(t *testing.T) {
	rdb := newClient()
	defer rdb.Close()

	ctx := context.Background()

	sub := rdb.Subscribe(ctx, "wire_channel")
	defer sub.Close()

	// wait for the subscribe ack before publishing
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	n, err := rdb.Publish(ctx, "wire_channel", "hello").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, "wire_channel", msg.Channel)
	assert.Equal(t, "hello", msg.Payload)
}
