// Package publisher streams persisted history records to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"copro/internal/history/models"
)

const produceTimeout = 5 * time.Second

// KafkaPublisher produces one message per record to a single topic. The
// message key is the apartment key so a unit's records stay ordered within
// a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

// NewKafka connects a producer to brokers.
func NewKafka(brokers []string, topic string, opts ...Option) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p := &KafkaPublisher{
		client: client,
		topic:  topic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// EnsureTopic creates the topic if the cluster does not have it yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopic(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	if resp.Err == nil {
		p.logger.InfoContext(ctx, "created history topic", "topic", p.topic, "partitions", partitions)
	}
	return nil
}

// Publish produces record synchronously and waits for broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, record models.Record) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, produceTimeout)
	defer cancel()

	msg := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(record.ApartmentKey),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(record.Action)},
			{Key: "resident_id", Value: []byte(record.ResidentKey)},
		},
		Timestamp: record.OccurredAt,
	}
	if err := p.client.ProduceSync(ctx, msg).FirstErr(); err != nil {
		return fmt.Errorf("produce history record: %w", err)
	}
	return nil
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close(ctx context.Context) {
	if err := p.client.Flush(ctx); err != nil {
		p.logger.WarnContext(ctx, "flush kafka producer", "error", err)
	}
	p.client.Close()
}
