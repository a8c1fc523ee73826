package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/loomline/backoffice/internal/enum"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaSource consumes row-level change records for the orders table from a
// CDC topic (Debezium envelope). Records whose row is not completed on either
// side of the change are dropped.
type KafkaSource struct {
	newReader func() messageReader
}

func NewKafkaSource(brokers []string, topic string) *KafkaSource {
	return &KafkaSource{
		newReader: func() messageReader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:     brokers,
				Topic:       topic,
				Partition:   0,
				MinBytes:    1,
				MaxBytes:    10e6,
				StartOffset: kafka.LastOffset,
			})
		},
	}
}

func (s *KafkaSource) Subscribe(ctx context.Context) (Subscription, error) {
	r := s.newReader()
	return startStream(ctx, func(ctx context.Context, emit func(ChangeEvent) bool) error {
		defer r.Close()
		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("read change record: %w", err)
			}
			ev, ok := parseChangeRecord(msg.Value)
			if !ok {
				continue
			}
			if !emit(ev) {
				return nil
			}
		}
	}), nil
}

type cdcRow struct {
	Status string `json:"status"`
}

type cdcEnvelope struct {
	Op     string  `json:"op"`
	Before *cdcRow `json:"before"`
	After  *cdcRow `json:"after"`
}

// parseChangeRecord accepts both the bare envelope and the schema-wrapped
// {"payload":{...}} form.
func parseChangeRecord(value []byte) (ChangeEvent, bool) {
	if len(value) == 0 {
		// Tombstone.
		return ChangeEvent{}, false
	}
	var wrapped struct {
		Payload json.RawMessage `json:"payload"`
	}
	body := value
	if err := json.Unmarshal(value, &wrapped); err == nil && len(wrapped.Payload) > 0 && wrapped.Payload[0] == '{' {
		body = wrapped.Payload
	}
	var env cdcEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ChangeEvent{}, false
	}
	if !completed(env.Before) && !completed(env.After) {
		return ChangeEvent{}, false
	}

	ev := ChangeEvent{Type: EventUnspecified, Payload: json.RawMessage(body)}
	switch env.Op {
	case "c":
		ev.Type = EventCreate
	case "u":
		ev.Type = EventUpdate
	case "d":
		ev.Type = EventDelete
	}
	return ev, true
}

func completed(r *cdcRow) bool {
	return r != nil && r.Status == enum.OrderStatusCompleted
}
