package kafka

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"ecodeli-delivery/internal/logx"
)

var newSyncProducer = sarama.NewSyncProducer

// Message is a record to publish
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

// Producer publishes records synchronously, waiting for all in-sync replicas
type Producer struct {
	producer sarama.SyncProducer
	logger   logx.Logger
}

// NewProducer creates a new Kafka producer.
// It returns nil without an error when no brokers are configured.
func NewProducer(logger logx.Logger, brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Timeout = 5 * time.Second
	cfg.Producer.Retry.Max = 3

	prod, err := newSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newProducer(prod, logger), nil
}

func newProducer(p sarama.SyncProducer, logger logx.Logger) *Producer {
	logger = logx.OrNop(logger)
	return &Producer{producer: p, logger: logger}
}

// Publish sends msg and returns once the broker acknowledged it
func (p *Producer) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pm := &sarama.ProducerMessage{
		Topic: msg.Topic,
		Value: sarama.ByteEncoder(msg.Value),
	}
	if strings.TrimSpace(msg.Key) != "" {
		pm.Key = sarama.StringEncoder(msg.Key)
	}
	if len(msg.Headers) > 0 {
		keys := make([]string, 0, len(msg.Headers))
		for k := range msg.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pm.Headers = append(pm.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(msg.Headers[k])})
		}
	}

	partition, offset, err := p.producer.SendMessage(pm)
	if err != nil {
		return err
	}
	p.logger.Debug("kafka message published",
		logx.String("topic", msg.Topic),
		logx.String("key", msg.Key),
		logx.Int("partition", int(partition)),
		logx.Int64("offset", offset),
	)
	return nil
}

// Close flushes and closes the producer
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
