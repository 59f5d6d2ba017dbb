package fanout

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_KeepsInputOrderAndIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	items := []int{1, 2, 3, 4, 5}

	results := Map(context.Background(), items, 2, strconv.Itoa, func(_ context.Context, n int) (int, error) {
		// Later items finish first.
		time.Sleep(time.Duration(6-n) * time.Millisecond)
		if n == 3 {
			return 0, boom
		}
		return n * 10, nil
	})

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, strconv.Itoa(items[i]), r.Key)
	}
	assert.ErrorIs(t, results[2].Err, boom)
	assert.Equal(t, []int{10, 20, 40, 50}, Values(results))

	failed := Failures(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "3", failed[0].Key)
}

func TestMap_RespectsLimit(t *testing.T) {
	var running, peak int32
	items := make([]int, 20)

	Map(context.Background(), items, 3, nil, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	results := Map(ctx, []string{"a", "b"}, 0, nil, func(context.Context, string) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})

	assert.Zero(t, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
		assert.False(t, r.OK())
	}
}

func TestMap_Empty(t *testing.T) {
	results := Map(context.Background(), []int(nil), 4, nil, func(context.Context, int) (int, error) {
		return 0, nil
	})
	assert.Empty(t, results)
	assert.Empty(t, Values(results))
	assert.Nil(t, Failures(results))
}
