package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueSerializesJobs(t *testing.T) {
	q := NewQueue("test", QueueConfig{BufferSize: 4})
	q.Start(context.Background())
	defer q.Stop()

	var running, maxRunning int32
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Do(context.Background(), "increment", func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					cur := atomic.LoadInt32(&maxRunning)
					if n <= cur || atomic.CompareAndSwapInt32(&maxRunning, cur, n) {
						break
					}
				}
				v := counter
				time.Sleep(time.Millisecond)
				counter = v + 1
				atomic.AddInt32(&running, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, counter)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
}

func TestQueueReturnsJobError(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	boom := errors.New("boom")
	err := q.Do(context.Background(), "fail", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestQueueNotStarted(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	err := q.Do(context.Background(), "noop", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestQueueAfterStop(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	q.Start(context.Background())
	q.Stop()
	q.Stop()

	err := q.Do(context.Background(), "noop", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestQueueCancelledContextSkipsJob(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := q.Do(ctx, "noop", func(context.Context) error {
		ran = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}
