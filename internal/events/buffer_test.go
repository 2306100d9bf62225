package events

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buffer", func() {
	It("keeps messages in insertion order", func() {
		b := newBuffer()
		b.PushBack(&message{Kind: SourceIngestedKind, Data: []byte("msg1")})
		b.PushBack(&message{Kind: SourceDeletedKind, Data: []byte("msg2")})
		b.PushBack(&message{Kind: SnapshotReloadedKind, Data: []byte("msg3")})
		Expect(b.Size()).To(Equal(3))
		Expect(b.head.Data).To(Equal([]byte("msg1")))
		Expect(b.tail.Data).To(Equal([]byte("msg3")))

		for _, want := range []string{"msg1", "msg2", "msg3"} {
			m := b.Pop()
			Expect(m).NotTo(BeNil())
			Expect(string(m.Data)).To(Equal(want))
		}

		Expect(b.Size()).To(Equal(0))
		Expect(b.head).To(BeNil())
		Expect(b.tail).To(BeNil())
		Expect(b.Pop()).To(BeNil())
	})
})
