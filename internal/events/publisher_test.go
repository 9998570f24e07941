package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"olza-admin/internal/config"
	"olza-admin/internal/logger"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherPublish(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, logger.Discard())

	event := NewEvent(TypePickupPointsRefreshed, "cz", map[string]interface{}{"success": true})
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(w.messages) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.messages))
	}
	msg := w.messages[0]
	if string(msg.Key) != "cz" {
		t.Errorf("key = %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != TypePickupPointsRefreshed {
		t.Errorf("headers = %v", msg.Headers)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded["id"] != event.ID || decoded["type"] != TypePickupPointsRefreshed {
		t.Errorf("decoded = %v", decoded)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close: %v (closed=%v)", err, w.closed)
	}
}

func TestKafkaPublisherWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisher(&fakeWriter{err: boom}, logger.Discard())

	err := p.Publish(context.Background(), NewEvent("x", "", nil))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped broker error", err)
	}
}

func TestNewWithoutBrokersIsNoop(t *testing.T) {
	p := New(&config.Config{}, logger.Discard())
	if _, ok := p.(NoopPublisher); !ok {
		t.Fatalf("New() = %T, want NoopPublisher", p)
	}
	if err := p.Publish(context.Background(), NewEvent("x", "", nil)); err != nil {
		t.Errorf("noop Publish: %v", err)
	}
}

func TestNewEventIDsAreUnique(t *testing.T) {
	a := NewEvent("x", "", nil)
	b := NewEvent("x", "", nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids %q and %q", a.ID, b.ID)
	}
}
