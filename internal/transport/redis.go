package transport

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/yanun0323/errors"

	"github.com/blacknand/AlgoPulse/pkg/exception"
)

// DefaultRedisChannel is used when the endpoint has no channel query parameter.
const DefaultRedisChannel = "quotes"

// ParseRedisEndpoint splits redis://host:port/db?channel=quotes into client
// options and the channel. A channel containing glob characters is pattern-subscribed.
func ParseRedisEndpoint(endpoint string) (*redis.Options, string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, "", errors.Wrapf(err, "parse redis endpoint %q", endpoint)
	}
	query := u.Query()
	channel := query.Get("channel")
	if channel == "" {
		channel = DefaultRedisChannel
	}
	query.Del("channel")
	u.RawQuery = query.Encode()

	opt, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, "", errors.Wrapf(err, "parse redis url %q", endpoint)
	}
	return opt, channel, nil
}

type redisSubscriber struct {
	client *redis.Client
	pubsub *redis.PubSub
	once   sync.Once
}

func dialRedis(ctx context.Context, endpoint string) (Subscriber, error) {
	opt, channel, err := ParseRedisEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis ping %s", opt.Addr)
	}

	var pubsub *redis.PubSub
	if strings.ContainsAny(channel, "*?[") {
		pubsub = client.PSubscribe(ctx, channel)
	} else {
		pubsub = client.Subscribe(ctx, channel)
	}
	// Wait for the subscription confirmation so no message published after
	// Dial returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis subscribe %s", channel)
	}
	return &redisSubscriber{client: client, pubsub: pubsub}, nil
}

func (s *redisSubscriber) Receive(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	msg, err := s.pubsub.ReceiveMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, receiveFailed("redis receive", err)
	}
	return []byte(msg.Payload), nil
}

func (s *redisSubscriber) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
		if cerr := s.client.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

type redisPublisher struct {
	client  *redis.Client
	channel string
}

func connectRedisPublisher(ctx context.Context, endpoint string) (Publisher, error) {
	opt, channel, err := ParseRedisEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if strings.ContainsAny(channel, "*?[") {
		return nil, errors.Wrapf(exception.ErrInvalidArgument, "cannot publish to pattern %q", channel)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis ping %s", opt.Addr)
	}
	return &redisPublisher{client: client, channel: channel}, nil
}

func (p *redisPublisher) Publish(ctx context.Context, payload []byte) error {
	return p.client.Publish(ctx, p.channel, payload).Err()
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}
