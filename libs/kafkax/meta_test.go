package kafkax

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestExtractEventMetaFromHeaders(t *testing.T) {
	msg := kafka.Message{
		Topic: "appointments.booked.v1",
		Key:   []byte("appt-1"),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte("evt-42")},
			{Key: "event_type", Value: []byte("appointments.booked.v1")},
		},
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "evt-42" {
		t.Fatalf("expected event_id evt-42, got %q", meta.EventID)
	}
	if meta.EventType != "appointments.booked.v1" {
		t.Fatalf("expected event_type from header, got %q", meta.EventType)
	}
}

func TestExtractEventMetaFallbacks(t *testing.T) {
	msg := kafka.Message{
		Topic: "appointments.cancelled.v1",
		Key:   []byte("appt-9"),
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "appt-9" {
		t.Fatalf("expected key fallback for event_id, got %q", meta.EventID)
	}
	if meta.EventType != "appointments.cancelled.v1" {
		t.Fatalf("expected topic fallback for event_type, got %q", meta.EventType)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", got)
	}
	if SplitBrokers("") != nil {
		t.Fatal("expected nil for empty input")
	}
}
