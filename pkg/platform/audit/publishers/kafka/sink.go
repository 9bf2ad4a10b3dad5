// Package kafka delivers transaction batches to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "epp-gateway/pkg/platform/audit"
)

// Payload is the JSON value of each record. Records are keyed by object ID so
// every transaction against one object lands on the same partition.
type Payload struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	Operator   string `json:"operator,omitempty"`
	Command    string `json:"command"`
	ObjectType string `json:"object_type,omitempty"`
	ObjectID   string `json:"object_id,omitempty"`
	ClTRID     string `json:"cltrid,omitempty"`
	SvTRID     string `json:"svtrid,omitempty"`
	ResultCode int    `json:"result_code,omitempty"`
	Message    string `json:"message,omitempty"`
	Outcome    string `json:"outcome"`
	RequestID  string `json:"request_id,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Producer is the subset of *kgo.Client the sink uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink writes batches with a synchronous produce.
type Sink struct {
	producer Producer
	topic    string
}

// NewSink returns a sink producing to topic.
func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// NewClient builds a franz-go client for brokers.
func NewClient(brokers []string, clientID string) (*kgo.Client, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return cl, nil
}

// Record builds the Kafka record for one event.
func Record(topic string, e audit.Event) (*kgo.Record, error) {
	value, err := json.Marshal(Payload{
		ID:         e.ID.String(),
		Category:   string(e.Category),
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
		Operator:   e.Operator,
		Command:    e.Command,
		ObjectType: e.ObjectType,
		ObjectID:   e.ObjectID,
		ClTRID:     e.ClTRID,
		SvTRID:     e.SvTRID,
		ResultCode: e.ResultCode,
		Message:    e.Message,
		Outcome:    string(e.Outcome),
		RequestID:  e.RequestID,
		DurationMS: e.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal transaction payload: %w", err)
	}
	key := e.ObjectID
	if key == "" {
		key = e.ID.String()
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(e.Category)},
			{Key: "command", Value: []byte(e.Command)},
		},
		Timestamp: e.Timestamp,
	}, nil
}

func (s *Sink) Write(ctx context.Context, events []audit.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		r, err := Record(s.topic, e)
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	if err := s.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", s.topic, err)
	}
	return nil
}
