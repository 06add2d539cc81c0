// Package transport adapts pub/sub feeds to the blocking receive the ingestion
// worker needs. Every Subscriber must unblock a pending Receive when Close is
// called or when the ctx handed to Receive is done.
package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanun0323/errors"

	"github.com/blacknand/AlgoPulse/pkg/exception"
)

// Subscriber yields raw wire messages.
type Subscriber interface {
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Publisher emits raw wire messages.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
	Close() error
}

// Dialer connects to endpoint and subscribes with topic, a payload prefix
// filter where "" matches every message.
type Dialer func(ctx context.Context, endpoint, topic string) (Subscriber, error)

const (
	SchemeTCP    = "tcp"
	SchemeIPC    = "ipc"
	SchemeRedis  = "redis"
	SchemeRedisS = "rediss"
	SchemeKafka  = "kafka"
	SchemeWS     = "ws"
	SchemeWSS    = "wss"
)

// Scheme returns the lower-cased scheme of endpoint, or "" when there is none.
func Scheme(endpoint string) string {
	idx := strings.Index(endpoint, "://")
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(endpoint[:idx])
}

// receiveFailed marks a broken receive as exception.ErrTransport and keeps the cause.
func receiveFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, exception.ErrTransport, err)
}

// Dial picks the transport from the endpoint scheme.
func Dial(ctx context.Context, endpoint, topic string) (Subscriber, error) {
	if endpoint == "" {
		return nil, exception.ErrEmptyEndpoint
	}
	switch Scheme(endpoint) {
	case SchemeTCP, SchemeIPC:
		return dialZMQ(ctx, endpoint, topic)
	case SchemeRedis, SchemeRedisS:
		sub, err := dialRedis(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return Filter(sub, topic), nil
	case SchemeKafka:
		sub, err := dialKafka(endpoint)
		if err != nil {
			return nil, err
		}
		return Filter(sub, topic), nil
	case SchemeWS, SchemeWSS:
		sub, err := dialWebsocket(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return Filter(sub, topic), nil
	default:
		return nil, errors.Wrapf(exception.ErrUnsupportedEndpoint, "endpoint %q", endpoint)
	}
}

// Listen opens a publisher on endpoint. ZeroMQ endpoints bind; the others connect.
func Listen(ctx context.Context, endpoint string) (Publisher, error) {
	if endpoint == "" {
		return nil, exception.ErrEmptyEndpoint
	}
	switch Scheme(endpoint) {
	case SchemeTCP, SchemeIPC:
		return listenZMQ(ctx, endpoint)
	case SchemeRedis, SchemeRedisS:
		return connectRedisPublisher(ctx, endpoint)
	case SchemeKafka:
		return connectKafkaPublisher(endpoint)
	case SchemeWS, SchemeWSS:
		return nil, errors.Wrapf(exception.ErrPublisherUnsupported, "endpoint %q", endpoint)
	default:
		return nil, errors.Wrapf(exception.ErrUnsupportedEndpoint, "endpoint %q", endpoint)
	}
}
