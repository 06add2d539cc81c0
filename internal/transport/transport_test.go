package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSubscriber struct {
	msgs   [][]byte
	closed bool
}

func (s *sliceSubscriber) Receive(ctx context.Context) ([]byte, error) {
	if len(s.msgs) == 0 {
		return nil, context.Canceled
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	return m, nil
}

func (s *sliceSubscriber) Close() error {
	s.closed = true
	return nil
}

func TestScheme(t *testing.T) {
	cases := map[string]string{
		"tcp://localhost:5555":    SchemeTCP,
		"IPC:///tmp/feed":         SchemeIPC,
		"redis://localhost:6379":  SchemeRedis,
		"kafka://b1:9092/quotes":  SchemeKafka,
		"wss://feed.example/live": SchemeWSS,
		"localhost:5555":          "",
		"://nothing":              "",
	}
	for endpoint, want := range cases {
		assert.Equal(t, want, Scheme(endpoint), endpoint)
	}
}

func TestDialRejectsBadEndpoints(t *testing.T) {
	ctx := context.Background()

	_, err := Dial(ctx, "", "")
	assert.Error(t, err)
	_, err = Dial(ctx, "udp://localhost:5555", "")
	assert.Error(t, err)
	_, err = Listen(ctx, "ws://localhost:8080/feed")
	assert.Error(t, err)
	_, err = Listen(ctx, "")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	src := &sliceSubscriber{msgs: [][]byte{
		[]byte("MSFT,1"),
		[]byte("AAPL,1"),
		[]byte("AAP"),
		[]byte("AAPL,2"),
	}}
	sub := Filter(src, "AAPL")

	got, err := sub.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AAPL,1", string(got))
	got, err = sub.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AAPL,2", string(got))
	_, err = sub.Receive(context.Background())
	assert.Error(t, err)

	require.NoError(t, sub.Close())
	assert.True(t, src.closed)
}

func TestFilterEmptyPrefixPassesThrough(t *testing.T) {
	src := &sliceSubscriber{}
	assert.Same(t, Subscriber(src), Filter(src, ""))
}

func TestParseKafkaEndpoint(t *testing.T) {
	ep, err := ParseKafkaEndpoint("kafka://b1:9092, b2:9092/ticks?group=algopulse")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, ep.Brokers)
	assert.Equal(t, "ticks", ep.Topic)
	assert.Equal(t, "algopulse", ep.GroupID)

	ep, err = ParseKafkaEndpoint("kafka://b1:9092")
	require.NoError(t, err)
	assert.Equal(t, DefaultKafkaTopic, ep.Topic)
	assert.Empty(t, ep.GroupID)

	_, err = ParseKafkaEndpoint("kafka:///ticks")
	assert.Error(t, err)
	_, err = ParseKafkaEndpoint("tcp://b1:9092")
	assert.Error(t, err)
}

func TestParseRedisEndpoint(t *testing.T) {
	opt, channel, err := ParseRedisEndpoint("redis://localhost:6380/2?channel=ticks")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, "ticks", channel)

	_, channel, err = ParseRedisEndpoint("redis://localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, DefaultRedisChannel, channel)
}
