package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic receives every appended activity record.
const DefaultTopic = "intentgate.activity"

// Publisher fans committed entries out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, entries []Entry) error
}

// NopPublisher drops entries.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []Entry) error { return nil }

// KafkaPublisher produces one record per entry keyed by owner, so a partition
// preserves each owner's log order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type KafkaOption func(*KafkaPublisher)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

func WithTopic(topic string) KafkaOption {
	return func(p *KafkaPublisher) {
		if topic != "" {
			p.topic = topic
		}
	}
}

func NewKafkaPublisher(brokers []string, opts ...KafkaOption) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	p := &KafkaPublisher{topic: DefaultTopic, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(p.topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(e.OwnerID),
			Value: []byte(e.Raw),
			Headers: []kgo.RecordHeader{
				{Key: "agent_id", Value: []byte(e.AgentID)},
				{Key: "timestamp", Value: []byte(strconv.FormatInt(e.Timestamp.UnixNano(), 10))},
			},
		})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce activity: %w", err)
	}
	p.logger.DebugContext(ctx, "activity published", "topic", p.topic, "count", len(records))
	return nil
}

// EnsureTopic creates the topic if it does not exist.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
