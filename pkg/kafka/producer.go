package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/segmentio/kafka-go"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Event is a serialized event bound for the output topic
type Event struct {
	Key       string
	EventType string
	OrgID     int64
	Payload   any
}

// Publish publishes a single event to the output topic
func (p *Producer) Publish(ctx context.Context, event *Event) error {
	return p.PublishBatch(ctx, []*Event{event})
}

// PublishBatch publishes multiple events in one write
func (p *Producer) PublishBatch(ctx context.Context, events []*Event) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishBatch")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	traceParent := tracing.GetTraceParent(ctx)

	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		data, err := json.Marshal(event.Payload)
		if err != nil {
			return err
		}

		headers := []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "org_id", Value: []byte(strconv.FormatInt(event.OrgID, 10))},
			{Key: "schema_version", Value: []byte("1.0")},
		}
		if traceParent != "" {
			headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceParent)})
		}

		messages[i] = kafka.Message{
			Topic:   p.topic,
			Key:     []byte(event.Key),
			Value:   data,
			Headers: headers,
		}
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, messages...)
	duration := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordKafkaPublish(p.topic, "error", duration)
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(events),
		}).Error("Failed to publish events")
		return err
	}

	metrics.RecordKafkaPublish(p.topic, "success", duration)
	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(events),
	}).Debug("Published events")

	return nil
}
