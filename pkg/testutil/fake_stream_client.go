package testutil

import (
	"context"
	"sync"

	"github.com/ironrep/coach/pkg/chat"
)

// FakeStreamClient implements chat.StreamClient for testing. Each Stream
// call hands back a FakeStream the test drives by hand, so event timing,
// late frames and transport failures can all be scripted.
type FakeStreamClient struct {
	mu       sync.Mutex
	streams  []*FakeStream
	requests []chat.AskRequest
	openErr  error
}

// FakeStream is one scripted connection.
type FakeStream struct {
	results chan chat.StreamResult
	ctx     context.Context
	closed  bool
	mu      sync.Mutex
}

func NewFakeStreamClient() *FakeStreamClient {
	return &FakeStreamClient{}
}

// FailNextOpen makes the next Stream call fail before any event, like a
// non-success response status.
func (c *FakeStreamClient) FailNextOpen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// Stream implements chat.StreamClient.
func (c *FakeStreamClient) Stream(ctx context.Context, req chat.AskRequest) (<-chan chat.StreamResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)

	// A connection opened with an already-cancelled context fails the way a
	// real HTTP request would.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.openErr != nil {
		err := c.openErr
		c.openErr = nil
		return nil, err
	}

	stream := &FakeStream{
		results: make(chan chat.StreamResult, 64),
		ctx:     ctx,
	}
	c.streams = append(c.streams, stream)
	return stream.results, nil
}

// Requests returns every AskRequest seen so far.
func (c *FakeStreamClient) Requests() []chat.AskRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chat.AskRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// StreamCount returns how many connections were opened.
func (c *FakeStreamClient) StreamCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streams)
}

// LastStream returns the most recently opened connection.
func (c *FakeStreamClient) LastStream() *FakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.streams) == 0 {
		return nil
	}
	return c.streams[len(c.streams)-1]
}

// StreamAt returns the i-th opened connection.
func (c *FakeStreamClient) StreamAt(i int) *FakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[i]
}

// Emit delivers an event on the stream. It delivers even after the
// consumer's context is cancelled, simulating a frame that was already in
// flight when the exchange was superseded.
func (s *FakeStream) Emit(ev chat.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.results <- chat.StreamResult{Event: ev}
	if ev.IsTerminal() {
		s.closeLocked()
	}
}

// Fail delivers a transport read failure and closes the stream.
func (s *FakeStream) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.results <- chat.StreamResult{Err: err}
	s.closeLocked()
}

// Close ends the stream without a terminal event, like a server that just
// stopped sending.
func (s *FakeStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closeLocked()
}

// Cancelled reports whether the consumer cancelled this connection.
func (s *FakeStream) Cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *FakeStream) closeLocked() {
	s.closed = true
	close(s.results)
}

var _ chat.StreamClient = (*FakeStreamClient)(nil)
