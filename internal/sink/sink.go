// Package sink delivers alerts raised by the processing worker.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanun0323/logs"

	"github.com/blacknand/AlgoPulse/internal/model"
)

// Sink receives every alert. Publish may be called from one goroutine only;
// implementations that are shared must do their own locking.
type Sink interface {
	Publish(ctx context.Context, a model.Alert) error
}

type Func func(ctx context.Context, a model.Alert) error

func (f Func) Publish(ctx context.Context, a model.Alert) error {
	return f(ctx, a)
}

// FormatAlert renders the operator-facing alert line.
func FormatAlert(a model.Alert) string {
	return fmt.Sprintf("anomaly detected for %s: spread = %g reason = %s", a.Symbol, a.Spread, a.Reason)
}

// Log writes one line per alert through the process logger.
type Log struct{}

func (Log) Publish(_ context.Context, a model.Alert) error {
	logs.Infof("%s", FormatAlert(a))
	return nil
}

// Multi fans an alert out to every sink. All sinks are tried; the errors are joined.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, a model.Alert) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
