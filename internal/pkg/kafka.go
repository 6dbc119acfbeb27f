package pkg

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventWriter 领域事件写入 kafka
type EventWriter struct {
	writer *kafka.Writer
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

func NewEventWriter(cfg KafkaConfig) *EventWriter {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &EventWriter{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

// Publish 以聚合 ID 为 key，同一聚合的事件落在同一分区
func (w *EventWriter) Publish(ctx context.Context, aggregateID uint64, eventID, eventType string, payload []byte) error {
	return w.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(aggregateID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte(eventType)},
		},
	})
}

func (w *EventWriter) Close() error {
	if w == nil || w.writer == nil {
		return nil
	}
	return w.writer.Close()
}
