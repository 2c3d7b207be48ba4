package integration

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ironrep/coach/pkg/chat"
	"github.com/ironrep/coach/pkg/fakeagent"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Streaming Integration Suite")
}

var _ = Describe("Session against the fake agent", func() {
	var (
		server  *httptest.Server
		session *chat.Session

		mu     sync.Mutex
		tokens []string
		errs   []string
	)

	callbacks := chat.Callbacks{
		OnToken: func(fragment string) {
			mu.Lock()
			tokens = append(tokens, fragment)
			mu.Unlock()
		},
		OnError: func(message string) {
			mu.Lock()
			errs = append(errs, message)
			mu.Unlock()
		},
	}

	newSession := func(opts ...fakeagent.Option) {
		server = httptest.NewServer(fakeagent.New(opts...).Handler())
		session = chat.NewSession(chat.NewClient(server.URL), callbacks)
	}

	BeforeEach(func() {
		mu.Lock()
		tokens = nil
		errs = nil
		mu.Unlock()
	})

	AfterEach(func() {
		session.Stop()
		server.Close()
	})

	It("should assemble the streamed answer into the transcript", func() {
		newSession(fakeagent.WithScript(fakeagent.AnswerScript("trainer", "three sets of five")))

		Expect(session.Send("how do I squat", chat.ModeWorkout)).To(Succeed())

		Eventually(session.IsStreaming, "2s", "10ms").Should(BeFalse())

		msgs := session.Messages()
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Role).To(Equal(chat.RoleUser))
		Expect(msgs[1].Content).To(Equal("three sets of five"))
		Expect(msgs[1].Agent).To(Equal("trainer"))
		Expect(msgs[1].IsStreaming).To(BeFalse())
		Expect(session.CurrentAgent()).To(Equal("trainer"))
		Expect(session.LastError()).To(BeEmpty())

		mu.Lock()
		defer mu.Unlock()
		Expect(tokens).ToNot(BeEmpty())
	})

	It("should keep token order across the wire", func() {
		answer := "one two three four five six seven eight nine ten"
		newSession(fakeagent.WithScript(fakeagent.AnswerScript("coach", answer)))

		Expect(session.Send("count", chat.ModeChat)).To(Succeed())
		Eventually(session.IsStreaming, "2s", "10ms").Should(BeFalse())

		Expect(session.Messages()[1].Content).To(Equal(answer))
	})

	It("should surface a fatal backend error without losing partial content", func() {
		newSession(fakeagent.WithScript(fakeagent.FatalScript("quota exceeded", "partial ", "answer")))

		Expect(session.Send("anything", chat.ModeChat)).To(Succeed())
		Eventually(session.IsStreaming, "2s", "10ms").Should(BeFalse())

		Expect(session.LastError()).To(Equal("quota exceeded"))
		answerMsg := session.Messages()[1]
		Expect(answerMsg.Content).To(Equal("partial answer"))
		Expect(answerMsg.IsStreaming).To(BeFalse())

		mu.Lock()
		defer mu.Unlock()
		Expect(errs).To(ConsistOf("quota exceeded"))
	})

	It("should cancel cleanly mid-stream", func() {
		newSession(fakeagent.WithDelay(20 * time.Millisecond))

		Expect(session.Send("a long question that streams slowly", chat.ModeChat)).To(Succeed())

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(tokens)
		}, "2s", "5ms").Should(BeNumerically(">", 0))

		session.Stop()

		Expect(session.IsStreaming()).To(BeFalse())
		Expect(session.LastError()).To(BeEmpty())
		Expect(session.Messages()[1].IsStreaming).To(BeFalse())
	})

	It("should supersede a slow exchange with a new one", func() {
		newSession(fakeagent.WithDelay(20 * time.Millisecond))

		Expect(session.Send("first question", chat.ModeChat)).To(Succeed())
		time.Sleep(50 * time.Millisecond)
		Expect(session.Send("second question", chat.ModeChat)).To(Succeed())

		Eventually(session.IsStreaming, "5s", "10ms").Should(BeFalse())

		msgs := session.Messages()
		Expect(msgs).To(HaveLen(4))
		for _, msg := range msgs {
			Expect(msg.IsStreaming).To(BeFalse())
		}
		// Only the second exchange ran to completion.
		Expect(msgs[3].Content).To(ContainSubstring("second question"))
		Expect(session.LastError()).To(BeEmpty())
	})

	It("should settle errored when the backend rejects the request", func() {
		newSession()

		// The fake agent rejects empty modes only at the session layer, so
		// force a transport failure by closing the server first.
		server.Close()

		Expect(session.Send("hello", chat.ModeChat)).To(Succeed())
		Eventually(session.IsStreaming, "2s", "10ms").Should(BeFalse())

		Expect(session.LastError()).ToNot(BeEmpty())
		Expect(session.Messages()[1].Content).To(Equal(chat.AnswerFailedMessage))
	})
})
