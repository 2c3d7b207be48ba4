package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ironrep/coach/pkg/logger"
)

// AnswerFailedMessage is what the in-flight message content becomes when the
// transport fails before or during the answer.
const AnswerFailedMessage = "Sorry, I couldn't reach the coach right now. Please try again."

// ErrEmptyQuestion is returned by Send for a blank question.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// Callbacks are optional notification hooks supplied at construction. Any
// field may be nil. They are invoked from the exchange goroutine, never with
// the session lock held.
type Callbacks struct {
	OnStart func(agent string)
	OnToken func(fragment string)
	OnEnd   func(fullResponse string)
	OnError func(message string)
}

// Session owns the lifecycle of question/answer exchanges against the agent
// backend: one exchange at a time, last request wins. Starting a new
// exchange supersedes (cancels, does not await) the previous one; events
// from a superseded exchange are discarded even if they are already in
// flight.
type Session struct {
	client    StreamClient
	callbacks Callbacks

	mu           sync.Mutex
	transcript   *Transcript
	sessionID    string
	generation   uint64
	cancel       context.CancelFunc
	inflightID   string
	streaming    bool
	currentAgent string
	lastError    string
}

// NewSession creates a session talking through client. The backend session
// id is generated; use NewSessionWithID to resume one.
func NewSession(client StreamClient, callbacks Callbacks) *Session {
	return NewSessionWithID(client, callbacks, uuid.NewString())
}

func NewSessionWithID(client StreamClient, callbacks Callbacks, sessionID string) *Session {
	return &Session{
		client:     client,
		callbacks:  callbacks,
		transcript: NewTranscript(),
		sessionID:  sessionID,
	}
}

// Send begins a new exchange for question. A prior active exchange is
// cancelled first. The returned error covers argument validation only;
// transport and protocol failures surface through LastError and OnError.
func (s *Session) Send(question, mode string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}
	if mode == "" {
		mode = ModeChat
	}
	if !ValidMode(mode) {
		return fmt.Errorf("unknown mode %q", mode)
	}

	s.mu.Lock()
	s.supersedeLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.generation++
	gen := s.generation
	s.lastError = ""
	s.currentAgent = ""
	s.streaming = true

	s.transcript.Append(NewUserMessage(question))
	placeholder := NewAssistantPlaceholder()
	s.transcript.Append(placeholder)
	s.inflightID = placeholder.ID

	req := AskRequest{
		Question:  question,
		Mode:      mode,
		SessionID: s.sessionID,
	}
	s.mu.Unlock()

	go s.run(ctx, gen, placeholder.ID, req)
	return nil
}

// Stop cancels the active exchange, if any. Cancellation is not an error:
// LastError stays empty and the partial content received so far is kept.
func (s *Session) Stop() {
	s.mu.Lock()
	s.supersedeLocked()
	s.mu.Unlock()
}

// Clear resets the transcript and the recorded error. It does not touch an
// in-flight exchange; call Stop first.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.Clear()
	s.lastError = ""
}

// Messages returns a snapshot of the conversation in append order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Messages()
}

// IsStreaming reports whether an exchange is in flight.
func (s *Session) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// CurrentAgent returns the last agent seen for the active exchange.
func (s *Session) CurrentAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentAgent
}

// LastError returns the last fatal error message, or "" when there is none.
// It is cleared at the start of each exchange.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// SessionID returns the backend session identifier sent with each exchange.
func (s *Session) SessionID() string {
	return s.sessionID
}

// supersedeLocked cancels the active exchange and settles its placeholder so
// at most one message is ever streaming. Bumping the generation invalidates
// any frame the old exchange still has in flight. Callers hold s.mu.
func (s *Session) supersedeLocked() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.inflightID != "" {
		s.transcript.FinishStreaming(s.inflightID, "")
		s.inflightID = ""
	}
	s.streaming = false
}

// run drives one exchange. gen gates every mutation: once the session has
// moved on to a newer exchange, anything this one still produces is a no-op.
func (s *Session) run(ctx context.Context, gen uint64, id string, req AskRequest) {
	results, err := s.client.Stream(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("Failed to open answer stream: %v", err)
		s.fail(gen, id, err.Error(), true)
		return
	}

	for res := range results {
		if ctx.Err() != nil {
			return
		}
		if res.Err != nil {
			logger.Error("Answer stream failed: %v", res.Err)
			s.fail(gen, id, res.Err.Error(), true)
			return
		}
		s.apply(gen, id, res.Event)
		if res.Event.IsTerminal() {
			return
		}
	}

	// Stream ended without an agent_end frame. Settle what we have.
	s.settle(gen, id, "")
}

// apply folds one event into session and transcript state.
func (s *Session) apply(gen uint64, id string, ev Event) {
	var notify func()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}

	switch ev.Type {
	case EventAgentStart:
		s.currentAgent = ev.Agent
		if cb := s.callbacks.OnStart; cb != nil {
			agent := ev.Agent
			notify = func() { cb(agent) }
		}

	case EventStart:
		s.transcript.SetProvider(id, ev.Provider)

	case EventToken:
		if ev.Content != "" {
			s.transcript.AppendContent(id, ev.Content)
		}
		if cb := s.callbacks.OnToken; cb != nil {
			fragment := ev.Content
			notify = func() { cb(fragment) }
		}

	case EventEnd:
		// Informational only; agent_end is the authority for completion.
		if cb := s.callbacks.OnEnd; cb != nil {
			full := ev.FullResponse
			notify = func() { cb(full) }
		}

	case EventAgentEnd:
		s.transcript.FinishStreaming(id, ev.Agent)
		s.inflightID = ""
		s.streaming = false
		s.cancel = nil

	case EventError:
		if !ev.Fatal {
			logger.Debug("Non-fatal stream error: %s", ev.Message)
			break
		}
		s.lastError = ev.Message
		s.transcript.FinishStreaming(id, "")
		s.inflightID = ""
		s.streaming = false
		s.cancel = nil
		if cb := s.callbacks.OnError; cb != nil {
			message := ev.Message
			notify = func() { cb(message) }
		}
	}
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// fail settles the exchange as errored. When overwrite is set the in-flight
// content is replaced with the user-facing failure string.
func (s *Session) fail(gen uint64, id string, message string, overwrite bool) {
	var notify func()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.lastError = message
	if overwrite {
		s.transcript.SetContent(id, AnswerFailedMessage)
	}
	s.transcript.FinishStreaming(id, "")
	s.inflightID = ""
	s.streaming = false
	s.cancel = nil
	if cb := s.callbacks.OnError; cb != nil {
		notify = func() { cb(message) }
	}
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// settle completes the exchange without an error.
func (s *Session) settle(gen uint64, id, agent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.transcript.FinishStreaming(id, agent)
	s.inflightID = ""
	s.streaming = false
	s.cancel = nil
}
