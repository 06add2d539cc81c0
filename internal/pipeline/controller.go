// Package pipeline runs the ingestion and processing goroutines and owns their
// lifecycle.
//
// # Flow
//
//	transport -> IngestionWorker -> bus.Queue -> ProcessingWorker -> Detector -> Sink
//
// # Shutdown
//
//  1. stop the ingestion worker and wait for it
//  2. close the queue
//  3. wait for the processing worker to drain it
package pipeline

import (
	"context"
	"strconv"
	"sync"

	"github.com/yanun0323/logs"

	"github.com/blacknand/AlgoPulse/internal/bus"
	"github.com/blacknand/AlgoPulse/internal/detect"
	"github.com/blacknand/AlgoPulse/internal/obs"
	"github.com/blacknand/AlgoPulse/internal/sink"
	"github.com/blacknand/AlgoPulse/internal/transport"
	"github.com/blacknand/AlgoPulse/pkg/backoff"
	"github.com/blacknand/AlgoPulse/pkg/exception"
)

// Config is the pipeline's own configuration surface.
type Config struct {
	Endpoint string
	Topic    string
	Queue    bus.Option
	Backoff  backoff.Backoff
}

// Deps are the collaborators the pipeline does not own.
type Deps struct {
	Dialer   transport.Dialer
	Detector detect.Detector
	Sink     sink.Sink
	Metrics  *obs.Metrics
}

const (
	StageDial = "dial"
)

// StartupError reports a Start that left nothing running.
type StartupError struct {
	Stage string
	Err   error
}

func (e *StartupError) Error() string {
	return exception.ErrStartup.Error() + " at " + e.Stage + ": " + e.Err.Error()
}

func (e *StartupError) Unwrap() []error {
	return []error{exception.ErrStartup, e.Err}
}

type Controller struct {
	cfg  Config
	deps Deps

	mu      sync.Mutex
	started bool
	stopped bool

	queue       *bus.Queue[item]
	ingest      *IngestionWorker
	process     *ProcessingWorker
	ingestDone  chan struct{}
	processDone chan struct{}
	done        chan struct{}
}

func New(cfg Config, deps Deps) (*Controller, error) {
	if deps.Dialer == nil {
		return nil, exception.ErrNilDialer
	}
	if deps.Detector == nil {
		return nil, exception.ErrNilDetector
	}
	if deps.Sink == nil {
		deps.Sink = sink.Log{}
	}
	if deps.Metrics == nil {
		deps.Metrics = obs.NewMetrics()
	}
	if cfg.Backoff == (backoff.Backoff{}) {
		cfg.Backoff = backoff.Default()
	}

	return &Controller{
		cfg:         cfg,
		deps:        deps,
		ingestDone:  make(chan struct{}),
		processDone: make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Start dials the transport and launches both workers. It returns once both
// goroutines are running; on error nothing is left running.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return exception.ErrAlreadyStarted
	}

	sub, err := c.deps.Dialer(ctx, c.cfg.Endpoint, c.cfg.Topic)
	if err != nil {
		return &StartupError{Stage: StageDial, Err: err}
	}
	if sub == nil {
		return &StartupError{Stage: StageDial, Err: exception.ErrNilInstance}
	}

	c.queue = bus.NewQueue[item](c.cfg.Queue)
	c.ingest = newIngestionWorker(c.cfg, c.deps.Dialer, sub, c.queue, c.deps.Metrics)
	c.process = newProcessingWorker(c.queue, c.deps.Detector, c.deps.Sink, c.deps.Metrics)
	c.started = true

	var ready sync.WaitGroup
	ready.Add(2)
	go func() {
		defer close(c.ingestDone)
		ready.Done()
		c.ingest.Run()
	}()
	go func() {
		defer close(c.done)
		defer close(c.processDone)
		ready.Done()
		c.process.Run()
		<-c.ingestDone
	}()
	ready.Wait()

	logs.Infof("pipeline started, endpoint %s, topic %q, queue %s", c.cfg.Endpoint, c.cfg.Topic, c.describeQueue())
	return nil
}

// Stop shuts the pipeline down in order and blocks until both workers have
// exited. Quotes already enqueued are processed first. Stop is idempotent and
// a no-op before Start.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	first := !c.stopped
	c.stopped = true
	c.mu.Unlock()

	if !first {
		<-c.done
		return
	}

	c.ingest.RequestStop()
	<-c.ingestDone
	c.queue.Close()
	<-c.processDone
	<-c.done

	s := c.deps.Metrics.Snapshot()
	logs.Infof("pipeline stopped, received %d, processed %d, alerts %d, decode errors %d",
		s.Received, s.Processed, s.Alerts, s.DecodeErrors())
}

// Done is closed once both workers have exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) Stats() obs.Snapshot {
	return c.deps.Metrics.Snapshot()
}

func (c *Controller) Metrics() *obs.Metrics {
	return c.deps.Metrics
}

// QueueLen reports how many quotes wait for processing.
func (c *Controller) QueueLen() int {
	c.mu.Lock()
	q := c.queue
	c.mu.Unlock()
	if q == nil {
		return 0
	}
	return q.Len()
}

func (c *Controller) describeQueue() string {
	if c.cfg.Queue.Capacity <= 0 {
		return "unbounded"
	}
	return strconv.Itoa(c.cfg.Queue.Capacity) + "/" + c.cfg.Queue.Overflow.String()
}
