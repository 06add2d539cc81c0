package transport

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yanun0323/errors"

	"github.com/blacknand/AlgoPulse/pkg/exception"
)

const DefaultKafkaTopic = "quotes"

// KafkaEndpoint is the parsed form of kafka://broker1:9092,broker2:9092/topic?group=id.
type KafkaEndpoint struct {
	Brokers []string
	Topic   string
	GroupID string
}

func ParseKafkaEndpoint(endpoint string) (KafkaEndpoint, error) {
	rest, ok := strings.CutPrefix(endpoint, SchemeKafka+"://")
	if !ok {
		return KafkaEndpoint{}, errors.Wrapf(exception.ErrUnsupportedEndpoint, "endpoint %q", endpoint)
	}

	var query string
	rest, query, _ = strings.Cut(rest, "?")
	hosts, topic, _ := strings.Cut(rest, "/")

	var brokers []string
	for _, h := range strings.Split(hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			brokers = append(brokers, h)
		}
	}
	if len(brokers) == 0 {
		return KafkaEndpoint{}, errors.Wrapf(exception.ErrEmptyEndpoint, "no kafka brokers in %q", endpoint)
	}
	if topic == "" {
		topic = DefaultKafkaTopic
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return KafkaEndpoint{}, errors.Wrapf(err, "parse kafka query %q", query)
	}
	return KafkaEndpoint{
		Brokers: brokers,
		Topic:   topic,
		GroupID: values.Get("group"),
	}, nil
}

type kafkaSubscriber struct {
	reader *kafka.Reader
}

func dialKafka(endpoint string) (Subscriber, error) {
	ep, err := ParseKafkaEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := kafka.ReaderConfig{
		Brokers:  ep.Brokers,
		Topic:    ep.Topic,
		GroupID:  ep.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  200 * time.Millisecond,
	}
	if ep.GroupID == "" {
		cfg.StartOffset = kafka.LastOffset
	}
	return &kafkaSubscriber{reader: kafka.NewReader(cfg)}, nil
}

func (s *kafkaSubscriber) Receive(ctx context.Context) ([]byte, error) {
	m, err := s.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, receiveFailed("kafka read", err)
	}
	return m.Value, nil
}

func (s *kafkaSubscriber) Close() error {
	return s.reader.Close()
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func connectKafkaPublisher(endpoint string) (Publisher, error) {
	ep, err := ParseKafkaEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return &kafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(ep.Brokers...),
		Topic:        ep.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, payload []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Value: payload})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
