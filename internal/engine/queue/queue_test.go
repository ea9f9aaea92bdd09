package queue

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityOrder(t *testing.T) {
	q := New[string]()
	q.Push("move-1", 0)
	q.Push("back", 10)
	q.Push("move-2", 0)
	q.Push("stop", math.MaxInt)

	var got []string
	for q.Len() > 0 {
		v, ok := q.TryPop()
		require.True(t, ok)
		got = append(got, v)
	}

	assert.Equal(t, []string{"stop", "back", "move-1", "move-2"}, got)
}

func TestPollTimeout(t *testing.T) {
	q := New[int]()

	start := time.Now()
	_, err := q.Poll(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPollWakesOnPush(t *testing.T) {
	q := New[int]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(42, 0)
	}()

	v, err := q.Poll(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestTakeCancelled(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Take(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
