package chat

import "sync"

// Transcript is the ordered message list for one chat surface. Messages are
// strictly append-ordered; mutation addresses messages by id only, so
// consumers may filter or reorder their own views without breaking
// targeting. All methods are safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a message at the end of the transcript and returns its id.
func (t *Transcript) Append(msg Message) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	return msg.ID
}

// AppendContent appends a fragment to the content of the message with the
// given id. Unknown ids are ignored.
func (t *Transcript) AppendContent(id, fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.index(id); i >= 0 {
		t.messages[i].Content += fragment
	}
}

// SetContent replaces the content of the message with the given id.
func (t *Transcript) SetContent(id, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.index(id); i >= 0 {
		t.messages[i].Content = content
	}
}

// SetProvider attaches provider metadata to the message with the given id.
func (t *Transcript) SetProvider(id, provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.index(id); i >= 0 {
		t.messages[i].Provider = provider
	}
}

// FinishStreaming flips IsStreaming off and records the final agent for the
// message with the given id.
func (t *Transcript) FinishStreaming(id, agent string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.index(id); i >= 0 {
		t.messages[i].IsStreaming = false
		if agent != "" {
			t.messages[i].Agent = agent
		}
	}
}

// Messages returns a snapshot copy of the transcript.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Clear removes all messages.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

// StreamingCount returns how many messages are currently streaming. The
// session keeps this at most one; the method exists so callers and tests can
// observe the invariant.
func (t *Transcript) StreamingCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, m := range t.messages {
		if m.IsStreaming {
			n++
		}
	}
	return n
}

func (t *Transcript) index(id string) int {
	for i := range t.messages {
		if t.messages[i].ID == id {
			return i
		}
	}
	return -1
}
