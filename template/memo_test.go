package template

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureCacheComputesOnce(t *testing.T) {
	c := NewFutureCache()
	var calls int32
	var wg sync.WaitGroup
	results := make([]Value, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompute(context.Background(), "k", func() (Value, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return NewInt(7), nil
			})
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, calls)
	for _, v := range results {
		assert.Equal(t, int64(7), v.Int())
	}
}

func TestFutureCacheWaiterCancellationDoesNotAbortComputation(t *testing.T) {
	c := NewFutureCache()
	started := make(chan struct{})
	release := make(chan struct{})

	ctx1, cancel1 := context.WithCancel(context.Background())
	go func() {
		_, _ = c.GetOrCompute(ctx1, "k", func() (Value, error) {
			close(started)
			<-release
			return NewString("done"), nil
		})
	}()
	<-started
	cancel1() // cancel the computing caller's own context

	done := make(chan struct{})
	var secondVal Value
	var secondErr error
	go func() {
		secondVal, secondErr = c.GetOrCompute(context.Background(), "k", func() (Value, error) {
			t.Fatal("second caller should not recompute")
			return Value{}, nil
		})
		close(done)
	}()

	close(release)
	<-done
	require.NoError(t, secondErr)
	assert.Equal(t, "done", secondVal.Str())
}

func TestFutureCachePanicSurfacesAsErrorToAllWaiters(t *testing.T) {
	c := NewFutureCache()
	_, err := c.GetOrCompute(context.Background(), "k", func() (Value, error) {
		panic("boom")
	})
	require.Error(t, err)

	_, err2 := c.GetOrCompute(context.Background(), "k", func() (Value, error) {
		t.Fatal("should not recompute after a panic; failure is cached")
		return Value{}, nil
	})
	require.Error(t, err2)
	assert.Equal(t, err.Error(), err2.Error())
}
