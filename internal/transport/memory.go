package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/blacknand/AlgoPulse/internal/bus"
	"github.com/blacknand/AlgoPulse/pkg/exception"
	"github.com/blacknand/AlgoPulse/pkg/scanner"
)

// Broker is an in-process pub/sub feed. Every subscriber gets its own
// unbounded queue, so Publish never blocks on a slow reader.
type Broker struct {
	mu     sync.Mutex
	subs   map[*memorySubscriber]struct{}
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[*memorySubscriber]struct{})}
}

// Publish copies payload to every subscriber whose topic prefixes it.
func (b *Broker) Publish(_ context.Context, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return exception.ErrTransportClosed
	}
	for sub := range b.subs {
		if !scanner.HasPrefix(payload, sub.topic) {
			continue
		}
		msg := make([]byte, len(payload))
		copy(msg, payload)
		_ = sub.queue.Push(msg)
	}
	return nil
}

// Subscribe attaches a new subscriber.
func (b *Broker) Subscribe(topic string) (Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, exception.ErrTransportClosed
	}
	sub := &memorySubscriber{
		broker: b,
		topic:  []byte(topic),
		queue:  bus.NewQueue[[]byte](bus.Option{}),
	}
	b.subs[sub] = struct{}{}
	return sub, nil
}

// Dial satisfies Dialer; the endpoint is ignored.
func (b *Broker) Dial(_ context.Context, _ string, topic string) (Subscriber, error) {
	return b.Subscribe(topic)
}

// Subscribers returns how many subscribers are attached.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close detaches and closes every subscriber.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*memorySubscriber]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.queue.Close()
	}
	return nil
}

func (b *Broker) remove(sub *memorySubscriber) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

type memorySubscriber struct {
	broker *Broker
	topic  []byte
	queue  *bus.Queue[[]byte]
}

func (s *memorySubscriber) Receive(ctx context.Context) ([]byte, error) {
	payload, err := s.queue.PopContext(ctx)
	if errors.Is(err, exception.ErrQueueClosed) {
		return nil, receiveFailed("memory receive", exception.ErrTransportClosed)
	}
	return payload, err
}

func (s *memorySubscriber) Close() error {
	s.broker.remove(s)
	s.queue.Close()
	return nil
}
