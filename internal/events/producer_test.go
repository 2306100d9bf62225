package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", func() {
	It("writes events in order", func() {
		w := newTestWriter()
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		ep := NewEventProducer(w, WithOutputTopic("topic1"), WithClock(func() time.Time { return now }))

		Expect(ep.Publish(context.TODO(), SourceIngestedKind, SourceEvent{Name: "prod", Rows: 10, Epoch: 1})).To(Succeed())
		Expect(ep.Publish(context.TODO(), SnapshotReloadedKind, ReloadEvent{Epoch: 2, Sources: 1})).To(Succeed())

		Eventually(w.Len).Should(Equal(2))

		first := w.Event(0)
		Expect(first.Kind).To(Equal(SourceIngestedKind))
		Expect(first.Source).To(Equal("inventory.advisor"))
		Expect(first.Time).To(Equal(now))
		Expect(first.ID).NotTo(BeEmpty())
		Expect(w.Topic()).To(Equal("topic1"))

		var payload SourceEvent
		Expect(json.Unmarshal(first.Data, &payload)).To(Succeed())
		Expect(payload).To(Equal(SourceEvent{Name: "prod", Rows: 10, Epoch: 1}))

		Expect(w.Event(1).Kind).To(Equal(SnapshotReloadedKind))
		Expect(ep.Close()).To(Succeed())
		Expect(w.Closed()).To(BeTrue())
	})

	It("rejects payloads that cannot be encoded", func() {
		ep := NewEventProducer(newTestWriter())
		defer ep.Close()

		Expect(ep.Publish(context.TODO(), SourceDeletedKind, make(chan int))).NotTo(Succeed())
	})
})

type testwriter struct {
	mu       sync.Mutex
	messages []Event
	topic    string
	closed   bool
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(ctx context.Context, topic string, e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, e)
	t.topic = topic
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *testwriter) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *testwriter) Event(i int) Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messages[i]
}

func (t *testwriter) Topic() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.topic
}

func (t *testwriter) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
