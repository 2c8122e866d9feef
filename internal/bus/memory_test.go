package bus

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusPreservesOrder(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(ctx, "events", "42", map[string]int{"seq": i}))
	}
	assert.Equal(t, 5, b.Depth("events"))

	c, err := b.Consumer("events")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		msg, err := c.Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, "events", msg.Topic)
		assert.Equal(t, "42", msg.Key)
		assert.JSONEq(t, `{"seq": `+strconv.Itoa(i)+`}`, string(msg.Value))
	}
}

func TestMemoryBusTopicsAreIndependent(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	require.NoError(t, b.Publish(ctx, "a", "k", "first"))
	require.NoError(t, b.Publish(ctx, "b", "k", "second"))

	cb, err := b.Consumer("b")
	require.NoError(t, err)
	msg, err := cb.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, `"second"`, string(msg.Value))
	assert.Equal(t, 1, b.Depth("a"))
}

func TestMemoryBusFetchHonorsCancellation(t *testing.T) {
	b := NewMemoryBus()

	c, err := b.Consumer("empty")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Fetch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryBusDrainsBeforeCancellation(t *testing.T) {
	b := NewMemoryBus()
	require.NoError(t, b.Publish(context.Background(), "events", "k", "pending"))

	c, err := b.Consumer("events")
	require.NoError(t, err)

	// Already-cancelled context still yields the buffered message.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msg, err := c.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, `"pending"`, string(msg.Value))

	_, err = c.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryBusClose(t *testing.T) {
	b := NewMemoryBus()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "events", "k", "x"), ErrBusClosed)
	_, err := b.Consumer("events")
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestMemoryConsumerClose(t *testing.T) {
	b := NewMemoryBus()
	c, err := b.Consumer("events")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrBusClosed)
}
