package transport

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacknand/AlgoPulse/pkg/exception"
)

func TestRedisRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	endpoint := "redis://" + mr.Addr() + "/0?channel=quotes"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := Dial(ctx, endpoint, "AAPL")
	require.NoError(t, err)
	defer sub.Close()

	pub, err := Listen(ctx, endpoint)
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(ctx, []byte("MSFT,1,2,3,4,5")))
	require.NoError(t, pub.Publish(ctx, []byte("AAPL,150.0,151.6,100,100,1")))

	got, err := sub.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AAPL,150.0,151.6,100,100,1", string(got))
}

func TestRedisReceiveUnblocksOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)

	sub, err := Dial(context.Background(), "redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = sub.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisReceiveFailsWhenServerGoesAway(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	sub, err := Dial(context.Background(), "redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer sub.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := sub.Receive(context.Background())
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	mr.Close()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.ErrorIs(t, err, exception.ErrTransport)
		assert.NotErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("receive did not fail after the server closed")
	}
}

func TestRedisDialFailsWithoutServer(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = Dial(ctx, "redis://"+addr, "")
	assert.Error(t, err)
}
