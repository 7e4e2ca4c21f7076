package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueKeepsFIFOOrder(t *testing.T) {
	q := NewRingQueue[int](4)

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, 3, q.Len())

	for i := 1; i <= 3; i++ {
		v, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.IsEmpty())
}

func TestRingQueueRejectsOverflow(t *testing.T) {
	q := NewRingQueue[string](2)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	assert.True(t, q.IsFull())
	assert.ErrorIs(t, q.Enqueue("c"), ErrQueueFull)

	// The rejected element never entered the queue.
	v, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestRingQueueDequeueEmpty(t *testing.T) {
	q := NewRingQueue[int](1)

	_, err := q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	_, err = q.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueuePeekDoesNotRemove(t *testing.T) {
	q := NewRingQueue[int](2)
	require.NoError(t, q.Enqueue(7))

	v, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, q.Len())

	v, err = q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestRingQueueWrapsAround(t *testing.T) {
	q := NewRingQueue[int](3)

	// Cycle enough elements through to wrap the indices several times.
	next := 0
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(i))
		v, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, next, v)
		next++
	}
	assert.True(t, q.IsEmpty())
}
