// Package events publishes memory lifecycle events for downstream
// analytics, realizing §9's message-passing note for fan-out beyond the
// access-feedback loop. The event types cover persisted / soft-deleted /
// gc-purged, but only the cleaner publishes, and only "persisted" events;
// soft-deletes and GC passes publish nothing. No-op when KAFKA_BROKERS is
// unset.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventType identifies a memory lifecycle transition.
type EventType string

const (
	EventPersisted   EventType = "memory.persisted"
	EventSoftDeleted EventType = "memory.soft_deleted"
	EventGCPurged    EventType = "memory.gc_purged"
)

// Event is the payload published for each lifecycle transition.
type Event struct {
	Type      EventType `json:"type"`
	MemoryID  string    `json:"memory_id"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is satisfied both by a real Kafka writer and by noopPublisher.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a Kafka-backed publisher when brokers is non-empty,
// otherwise a no-op publisher.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return noopPublisher{}
	}
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.MemoryID),
		Value: payload,
		Time:  evt.Timestamp,
	})
}

func (p *kafkaPublisher) Close() error { return p.writer.Close() }

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, evt Event) error { return nil }
func (noopPublisher) Close() error                                 { return nil }
