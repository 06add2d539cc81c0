package transport

import (
	"context"

	"github.com/blacknand/AlgoPulse/pkg/scanner"
)

// Filter drops messages that do not start with prefix, the way a ZeroMQ
// subscription does. An empty prefix returns sub unchanged.
func Filter(sub Subscriber, prefix string) Subscriber {
	if prefix == "" || sub == nil {
		return sub
	}
	return &filtered{Subscriber: sub, prefix: []byte(prefix)}
}

type filtered struct {
	Subscriber
	prefix []byte
}

func (f *filtered) Receive(ctx context.Context) ([]byte, error) {
	for {
		payload, err := f.Subscriber.Receive(ctx)
		if err != nil {
			return nil, err
		}
		if scanner.HasPrefix(payload, f.prefix) {
			return payload, nil
		}
	}
}
