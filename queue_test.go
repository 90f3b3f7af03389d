package asyncstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnboundedQueue(t *testing.T) {
	t.Parallel()
	t.Run("PushPopFIFO", func(t *testing.T) {
		t.Parallel()
		q := newUnboundedQueue[int]()
		q.push(1)
		q.push(2)
		q.push(3)
		ctx := context.Background()
		for _, want := range []int{1, 2, 3} {
			v, ok, err := q.pop(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, v)
		}
	})

	t.Run("CloseDrainsThenEnds", func(t *testing.T) {
		t.Parallel()
		q := newUnboundedQueue[int]()
		q.push(1)
		q.closeQueue()
		ctx := context.Background()
		v, ok, err := q.pop(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, v)
		_, ok, err = q.pop(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("PopRespectsCancellation", func(t *testing.T) {
		t.Parallel()
		q := newUnboundedQueue[int]()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, ok, err := q.pop(ctx)
		assert.False(t, ok)
		assert.Error(t, err)
	})
}

func TestBoundedDropNewestQueue(t *testing.T) {
	t.Parallel()
	t.Run("DropsOnceFull", func(t *testing.T) {
		t.Parallel()
		q := newBoundedDropNewestQueue[int](2)
		q.offer(1)
		q.offer(2)
		q.offer(3) // dropped
		ctx := context.Background()
		v, ok, err := q.pop(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, v)
		v, ok, err = q.pop(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 2, v)
		assert.Equal(t, 1, q.droppedCount())
	})

	t.Run("UnboundedWhenMaxBufferNonPositive", func(t *testing.T) {
		t.Parallel()
		q := newBoundedDropNewestQueue[int](0)
		for i := range 1000 {
			q.offer(i)
		}
		assert.Equal(t, 0, q.droppedCount())
	})

	t.Run("FailSurfacesAfterDrain", func(t *testing.T) {
		t.Parallel()
		q := newBoundedDropNewestQueue[int](4)
		q.offer(1)
		cause := assert.AnError
		q.fail(NewSourceError(cause))
		ctx := context.Background()
		v, ok, err := q.pop(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, v)
		_, ok, err = q.pop(ctx)
		assert.False(t, ok)
		assert.Error(t, err)
		var se *SourceError
		assert.ErrorAs(t, err, &se)
	})
}
