package chat

import (
	"encoding/json"
	"fmt"
)

// EventType discriminates the wire events emitted by the agent backend.
type EventType string

const (
	EventAgentStart EventType = "agent_start"
	EventStart      EventType = "start"
	EventToken      EventType = "token"
	EventEnd        EventType = "end"
	EventAgentEnd   EventType = "agent_end"
	EventError      EventType = "error"
)

// Event is one decoded frame from the answer stream. Only Type is always
// present; the remaining fields depend on the event type.
type Event struct {
	Type         EventType `json:"type"`
	Content      string    `json:"content,omitempty"`
	Agent        string    `json:"agent,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model,omitempty"`
	Message      string    `json:"message,omitempty"`
	Fatal        bool      `json:"fatal,omitempty"`
	Timestamp    string    `json:"timestamp,omitempty"`
	FullResponse string    `json:"full_response,omitempty"`
}

// DecodeEvent parses one frame payload into an Event. A payload that is not
// valid JSON or carries an unknown type is a decode error; callers drop such
// frames and keep reading.
func DecodeEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode stream event: %w", err)
	}

	switch ev.Type {
	case EventAgentStart, EventStart, EventToken, EventEnd, EventAgentEnd, EventError:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("unknown stream event type %q", ev.Type)
	}
}

// IsTerminal reports whether the event ends the exchange.
func (e Event) IsTerminal() bool {
	return e.Type == EventAgentEnd || (e.Type == EventError && e.Fatal)
}
