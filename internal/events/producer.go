package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e Event) error
	Close(ctx context.Context) error
}

// EventProducer is a wrapper around a Writer with a buffer, so callers are
// not blocked while the writer is busy.
type EventProducer struct {
	buffer *buffer
	wakeCh chan struct{}
	doneCh chan struct{}
	exitCh chan struct{}
	writer Writer
	topic  string
	clock  func() time.Time
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		buffer: newBuffer(),
		wakeCh: make(chan struct{}, 1),
		doneCh: make(chan struct{}),
		exitCh: make(chan struct{}),
		writer: w,
		topic:  defaultTopic,
		clock:  time.Now,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

// Publish queues payload as an event of the given kind.
func (ep *EventProducer) Publish(ctx context.Context, kind Kind, payload any) error {
	d, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ep.buffer.PushBack(&message{Kind: kind, Data: d})

	select {
	case ep.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Close flushes the pending events and closes the writer.
func (ep *EventProducer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	close(ep.doneCh)
	select {
	case <-ep.exitCh:
	case <-closeCtx.Done():
	}

	if err := ep.writer.Close(closeCtx); err != nil {
		zap.S().Named("event_producer").Errorw("event producer closed with error", "error", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")
	return nil
}

func (ep *EventProducer) run() {
	defer close(ep.exitCh)
	for {
		ep.flush()

		select {
		case <-ep.wakeCh:
		case <-ep.doneCh:
			ep.flush()
			return
		}
	}
}

func (ep *EventProducer) flush() {
	for msg := ep.buffer.Pop(); msg != nil; msg = ep.buffer.Pop() {
		e := Event{
			ID:     uuid.NewString(),
			Kind:   msg.Kind,
			Source: eventSource,
			Time:   ep.clock(),
			Data:   msg.Data,
		}
		if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
			zap.S().Named("event_producer").Errorw("failed to send event", "error", err, "kind", e.Kind, "id", e.ID)
		}
	}
}
