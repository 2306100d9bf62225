package events

import "time"

type ProducerOptions func(e *EventProducer)

func WithOutputTopic(topic string) ProducerOptions {
	return func(e *EventProducer) {
		e.topic = topic
	}
}

func WithClock(clock func() time.Time) ProducerOptions {
	return func(e *EventProducer) {
		e.clock = clock
	}
}
