package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacknand/AlgoPulse/pkg/exception"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int](Option{})
	const n = 1000
	for i := 0; i < n; i++ {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, n, q.Len())

	for i := 0; i < n; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		if v != i {
			t.Fatalf("pop order mismatch: got %d want %d", v, i)
		}
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueueFIFOAcrossWrapAndGrow(t *testing.T) {
	q := NewQueue[int](Option{})
	next, want := 0, 0
	for round := 0; round < 50; round++ {
		for i := 0; i < round+3; i++ {
			require.NoError(t, q.Push(next))
			next++
		}
		for i := 0; i < round+1; i++ {
			v, ok := q.TryPop()
			require.True(t, ok)
			require.Equal(t, want, v)
			want++
		}
	}
	for {
		v, ok := q.TryPop()
		if !ok {
			break
		}
		require.Equal(t, want, v)
		want++
	}
	assert.Equal(t, next, want)
}

func TestQueueTryPopEmpty(t *testing.T) {
	q := NewQueue[string](Option{})
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestQueueConcurrentNoLossNoDuplication(t *testing.T) {
	const n = 20000
	q := NewQueue[int](Option{})
	seen := make([]int, n)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			v, ok := q.Pop()
			if !ok {
				return
			}
			seen[v]++
		}
	}()

	for i := 0; i < n; i++ {
		require.NoError(t, q.Push(i))
	}
	q.Close()
	wg.Wait()

	for i, c := range seen {
		if c != 1 {
			t.Fatalf("item %d popped %d times", i, c)
		}
	}
	assert.Equal(t, StateClosed, q.State())
}

func TestQueueConcurrentBoundedBlock(t *testing.T) {
	const n = 10000
	q := NewQueue[int](Option{Capacity: 8, Overflow: OverflowBlock})
	got := make([]int, 0, n)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			v, ok := q.Pop()
			if !ok {
				return
			}
			got = append(got, v)
		}
	}()

	for i := 0; i < n; i++ {
		require.NoError(t, q.Push(i))
	}
	q.Close()
	<-done

	require.Len(t, got, n)
	for i, v := range got {
		if v != i {
			t.Fatalf("order mismatch at %d: got %d", i, v)
		}
	}
}

func TestQueueCloseDrains(t *testing.T) {
	q := NewQueue[int](Option{})
	assert.Equal(t, StateOpen, q.State())

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))
	q.Close()
	q.Close()
	assert.Equal(t, StateClosing, q.State())
	assert.ErrorIs(t, q.Push(3), exception.ErrQueueClosed)

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	assert.Equal(t, StateClosed, q.State())
	_, ok = q.Pop()
	assert.False(t, ok)
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := NewQueue[int](Option{})
	result := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		result <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("pop did not unblock after close")
	}
}

func TestQueuePopWakesOnPush(t *testing.T) {
	q := NewQueue[int](Option{})
	result := make(chan int, 1)
	go func() {
		v, _ := q.Pop()
		result <- v
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(7))

	select {
	case v := <-result:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake on push")
	}
}

func TestQueuePopContext(t *testing.T) {
	q := NewQueue[int](Option{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.PopContext(ctx)
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("pop did not unblock after cancel")
	}

	require.NoError(t, q.Push(5))
	v, err := q.PopContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	q.Close()
	_, err = q.PopContext(context.Background())
	assert.ErrorIs(t, err, exception.ErrQueueClosed)
}

func TestQueueOverflowReject(t *testing.T) {
	q := NewQueue[int](Option{Capacity: 2, Overflow: OverflowReject})
	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))
	assert.ErrorIs(t, q.Push(3), exception.ErrQueueFull)

	v, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	require.NoError(t, q.Push(3))
}

func TestQueueOverflowDropOldest(t *testing.T) {
	q := NewQueue[int](Option{Capacity: 2, Overflow: OverflowDropOldest})
	for i := 1; i <= 5; i++ {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, uint64(3), q.Dropped())

	v, _ := q.TryPop()
	assert.Equal(t, 4, v)
	v, _ = q.TryPop()
	assert.Equal(t, 5, v)
}

func TestQueueBlockedPushReleasedByClose(t *testing.T) {
	q := NewQueue[int](Option{Capacity: 1, Overflow: OverflowBlock})
	require.NoError(t, q.Push(1))

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Push(2)
	}()
	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, exception.ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("push did not unblock after close")
	}

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestParseOverflowPolicy(t *testing.T) {
	for _, p := range []OverflowPolicy{OverflowBlock, OverflowDropOldest, OverflowReject} {
		got, ok := ParseOverflowPolicy(p.String())
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := ParseOverflowPolicy("spill")
	assert.False(t, ok)
}
