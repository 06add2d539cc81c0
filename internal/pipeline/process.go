package pipeline

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"github.com/blacknand/AlgoPulse/internal/bus"
	"github.com/blacknand/AlgoPulse/internal/detect"
	"github.com/blacknand/AlgoPulse/internal/model"
	"github.com/blacknand/AlgoPulse/internal/obs"
	"github.com/blacknand/AlgoPulse/internal/sink"
)

// item is what travels through the hand-off queue.
type item struct {
	quote      model.Quote
	enqueuedAt time.Time
}

// ProcessingWorker drains the queue through the detector. It only exits once
// the queue is closed and empty.
type ProcessingWorker struct {
	queue    *bus.Queue[item]
	detector detect.Detector
	sink     sink.Sink
	metrics  *obs.Metrics
}

func newProcessingWorker(queue *bus.Queue[item], detector detect.Detector, s sink.Sink, metrics *obs.Metrics) *ProcessingWorker {
	return &ProcessingWorker{
		queue:    queue,
		detector: detector,
		sink:     s,
		metrics:  metrics,
	}
}

func (w *ProcessingWorker) Run() {
	for {
		it, ok := w.queue.Pop()
		if !ok {
			return
		}
		w.process(it)
	}
}

func (w *ProcessingWorker) process(it item) {
	w.metrics.ObserveQueue(time.Since(it.enqueuedAt))

	start := time.Now()
	alert, hit := w.detector.Evaluate(it.quote)
	w.metrics.ObserveEvaluate(time.Since(start))
	w.metrics.IncProcessed()
	if !hit {
		return
	}

	w.metrics.IncAlert()
	if err := w.sink.Publish(context.Background(), alert); err != nil {
		w.metrics.IncSinkError()
		logs.Errorf("publish alert for %s: %+v", alert.Symbol, err)
	}
}
