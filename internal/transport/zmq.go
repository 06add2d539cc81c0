package transport

import (
	"context"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/yanun0323/errors"

	"github.com/blacknand/AlgoPulse/pkg/exception"
)

// zmqSubscriber is a ZeroMQ SUB socket. The topic is applied by the socket
// itself. The socket only exposes a blocking Recv, so a done Receive ctx
// tears the socket down.
type zmqSubscriber struct {
	sock   zmq4.Socket
	cancel context.CancelFunc
	once   sync.Once
}

func dialZMQ(_ context.Context, endpoint, topic string) (Subscriber, error) {
	sockCtx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewSub(sockCtx)
	if err := sock.Dial(endpoint); err != nil {
		cancel()
		_ = sock.Close()
		return nil, errors.Wrapf(err, "zmq dial %s", endpoint)
	}
	if err := sock.SetOption(zmq4.OptionSubscribe, topic); err != nil {
		cancel()
		_ = sock.Close()
		return nil, errors.Wrapf(err, "zmq subscribe %q", topic)
	}
	return &zmqSubscriber{sock: sock, cancel: cancel}, nil
}

func (s *zmqSubscriber) Receive(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		msg, err := s.sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, receiveFailed("zmq recv", err)
		}
		// Multipart messages carry the body in the last frame.
		if n := len(msg.Frames); n > 0 {
			return msg.Frames[n-1], nil
		}
	}
}

func (s *zmqSubscriber) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.sock.Close()
	})
	return err
}

type zmqPublisher struct {
	sock   zmq4.Socket
	cancel context.CancelFunc
	mu     sync.Mutex
}

func listenZMQ(_ context.Context, endpoint string) (Publisher, error) {
	sockCtx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewPub(sockCtx)
	if err := sock.Listen(endpoint); err != nil {
		cancel()
		_ = sock.Close()
		return nil, errors.Wrapf(err, "zmq listen %s", endpoint)
	}
	return &zmqPublisher{sock: sock, cancel: cancel}, nil
}

func (p *zmqPublisher) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sock == nil {
		return exception.ErrTransportClosed
	}
	return p.sock.Send(zmq4.NewMsg(payload))
}

func (p *zmqPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sock == nil {
		return nil
	}
	p.cancel()
	err := p.sock.Close()
	p.sock = nil
	return err
}
