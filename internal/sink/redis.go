package sink

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/yanun0323/errors"

	"github.com/blacknand/AlgoPulse/internal/model"
)

const DefaultRedisChannel = "alerts"

// Redis publishes alerts as JSON on "<channel>.<SYMBOL>", so consumers can
// pattern-subscribe to "<channel>.*" or follow one symbol.
type Redis struct {
	client  redis.UniversalClient
	channel string
}

func NewRedis(client redis.UniversalClient, channel string) *Redis {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &Redis{client: client, channel: channel}
}

// DialRedis connects to url and checks the server answers.
func DialRedis(ctx context.Context, url, channel string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrapf(err, "parse alert redis url %q", url)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping alert redis %s", opt.Addr)
	}
	return NewRedis(client, channel), nil
}

func (r *Redis) Channel(symbol string) string {
	return r.channel + "." + symbol
}

func (r *Redis) Publish(ctx context.Context, a model.Alert) error {
	payload, err := sonic.ConfigFastest.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "marshal alert")
	}
	if err := r.client.Publish(ctx, r.Channel(a.Symbol), payload).Err(); err != nil {
		return errors.Wrapf(err, "publish alert for %s", a.Symbol)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
