package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"github.com/blacknand/AlgoPulse/internal/bus"
	"github.com/blacknand/AlgoPulse/internal/codec"
	"github.com/blacknand/AlgoPulse/internal/obs"
	"github.com/blacknand/AlgoPulse/internal/transport"
	"github.com/blacknand/AlgoPulse/pkg/backoff"
	"github.com/blacknand/AlgoPulse/pkg/exception"
)

// IngestionWorker receives wire messages, decodes them and hands the quotes to
// the processing side. It owns the subscriber and redials it after transport
// faults.
type IngestionWorker struct {
	dial     transport.Dialer
	endpoint string
	topic    string
	queue    *bus.Queue[item]
	backoff  backoff.Backoff
	metrics  *obs.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	sub transport.Subscriber
}

func newIngestionWorker(cfg Config, dial transport.Dialer, sub transport.Subscriber, queue *bus.Queue[item], metrics *obs.Metrics) *IngestionWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &IngestionWorker{
		dial:     dial,
		endpoint: cfg.Endpoint,
		topic:    cfg.Topic,
		queue:    queue,
		backoff:  cfg.Backoff,
		metrics:  metrics,
		ctx:      ctx,
		cancel:   cancel,
		sub:      sub,
	}
}

// Run loops until RequestStop.
func (w *IngestionWorker) Run() {
	defer w.closeSubscriber()

	attempt := 0
	for {
		if w.ctx.Err() != nil {
			return
		}

		sub := w.subscriber()
		if sub == nil {
			next, err := w.dial(w.ctx, w.endpoint, w.topic)
			if err != nil {
				if w.ctx.Err() != nil {
					return
				}
				attempt++
				w.retry(attempt, "dial", err)
				continue
			}
			if !w.setSubscriber(next) {
				return
			}
			w.metrics.IncReconnect()
			logs.Infof("ingestion reconnected to %s", w.endpoint)
			sub = next
		}

		payload, err := sub.Receive(w.ctx)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			w.metrics.IncTransportError()
			w.dropSubscriber(sub)
			attempt++
			w.retry(attempt, "receive", err)
			continue
		}

		attempt = 0
		w.handle(payload)
	}
}

// RequestStop makes Run return at its next safe point. A pending Receive is
// unblocked by closing the subscriber.
func (w *IngestionWorker) RequestStop() {
	w.cancel()
	w.closeSubscriber()
}

func (w *IngestionWorker) handle(payload []byte) {
	w.metrics.IncReceived()

	q, err := codec.DecodeQuote(payload)
	if err != nil {
		if errors.Is(err, exception.ErrMissingField) {
			w.metrics.IncDecodeMissing()
		} else {
			w.metrics.IncDecodeMalformed()
		}
		logs.Debugf("skip message %q: %s", payload, err)
		return
	}
	w.metrics.IncDecoded()

	if err := w.queue.Push(item{quote: q, enqueuedAt: time.Now()}); err != nil {
		w.metrics.IncRejected()
		logs.Errorf("drop quote for %s: %s", q.Symbol, err)
		return
	}
	w.metrics.IncEnqueued()
}

func (w *IngestionWorker) retry(attempt int, op string, err error) {
	wait := w.backoff.Next(attempt)
	logs.Errorf("ingestion %s %s failed, attempt %d, retry in %s: %+v", op, w.endpoint, attempt, wait, err)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-w.ctx.Done():
	case <-timer.C:
	}
}

func (w *IngestionWorker) subscriber() transport.Subscriber {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sub
}

// setSubscriber reports false when a stop raced the dial; next is closed then.
func (w *IngestionWorker) setSubscriber(next transport.Subscriber) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx.Err() != nil {
		_ = next.Close()
		return false
	}
	w.sub = next
	return true
}

func (w *IngestionWorker) dropSubscriber(sub transport.Subscriber) {
	w.mu.Lock()
	if w.sub == sub {
		w.sub = nil
	}
	w.mu.Unlock()
	_ = sub.Close()
}

func (w *IngestionWorker) closeSubscriber() {
	w.mu.Lock()
	sub := w.sub
	w.sub = nil
	w.mu.Unlock()
	if sub != nil {
		_ = sub.Close()
	}
}
