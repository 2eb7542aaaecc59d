package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/ericborczuk/cloud-asset-manager/common/logger"
)

// KafkaQueue is a Kafka-backed queue for production
type KafkaQueue struct {
	brokers []string
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
	mu      sync.Mutex
	log     *logger.Logger
}

// NewKafkaQueue creates a queue over the given brokers
func NewKafkaQueue(brokers []string, log *logger.Logger) *KafkaQueue {
	return &KafkaQueue{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
		log:     log,
	}
}

func (q *KafkaQueue) writer(topic string) *kafka.Writer {
	q.mu.Lock()
	defer q.mu.Unlock()

	w, exists := q.writers[topic]
	if !exists {
		w = &kafka.Writer{
			Addr:         kafka.TCP(q.brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		}
		q.writers[topic] = w
	}
	return w
}

// Publish publishes a message to a topic
func (q *KafkaQueue) Publish(ctx context.Context, topic string, key string, message []byte) error {
	err := q.writer(topic).WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: message,
	})
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}

	q.log.Debug("published message", "topic", topic, "key", key)
	return nil
}

// Subscribe consumes a topic and processes messages until ctx is cancelled
func (q *KafkaQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: q.brokers,
		Topic:   topic,
		GroupID: "asset-manager",
	})

	q.mu.Lock()
	q.readers = append(q.readers, reader)
	q.mu.Unlock()

	q.log.Info("subscribing to topic", "topic", topic)

	go func() {
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					q.log.Info("subscription cancelled", "topic", topic)
					return
				}
				q.log.Error("kafka read error", "topic", topic, "error", err)
				continue
			}
			if err := handler(ctx, string(msg.Key), msg.Value); err != nil {
				q.log.Error("message handler error", "topic", topic, "key", string(msg.Key), "error", err)
			}
		}
	}()

	return nil
}

// Close closes all writers and readers
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for topic, w := range q.writers {
		if err := w.Close(); err != nil {
			q.log.Error("failed to close kafka writer", "topic", topic, "error", err)
		}
	}
	for _, r := range q.readers {
		if err := r.Close(); err != nil {
			q.log.Error("failed to close kafka reader", "error", err)
		}
	}
	return nil
}
