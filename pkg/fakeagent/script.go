package fakeagent

import (
	"fmt"
	"strings"
	"time"

	"github.com/ironrep/coach/pkg/chat"
)

// Agents answering per mode, mirroring the real backend's routing.
var modeAgents = map[string]string{
	chat.ModeMedical:   "medic",
	chat.ModeWorkout:   "trainer",
	chat.ModeNutrition: "dietician",
	chat.ModeChat:      "coach",
}

const defaultProvider = "fakeagent"

// DefaultScript answers any question with a short canned response from the
// agent matching the requested mode.
func DefaultScript(req chat.AskRequest) []chat.Event {
	agent := modeAgents[req.Mode]
	if agent == "" {
		agent = modeAgents[chat.ModeChat]
	}
	answer := fmt.Sprintf("You asked: %s. This is a canned %s answer.", req.Question, agent)
	return AnswerScript(agent, answer)(req)
}

// AnswerScript streams answer word by word from agent, framed by the full
// start/end envelope the real backend emits.
func AnswerScript(agent, answer string) ScriptFunc {
	return func(chat.AskRequest) []chat.Event {
		events := []chat.Event{
			{Type: chat.EventAgentStart, Agent: agent, Timestamp: time.Now().Format(time.RFC3339)},
			{Type: chat.EventStart, Provider: defaultProvider, Model: "canned-v1"},
		}

		words := strings.SplitAfter(answer, " ")
		for _, word := range words {
			events = append(events, chat.Event{Type: chat.EventToken, Content: word})
		}

		events = append(events,
			chat.Event{Type: chat.EventEnd, FullResponse: answer},
			chat.Event{Type: chat.EventAgentEnd, Agent: agent},
		)
		return events
	}
}

// FatalScript streams a few tokens and then a fatal error.
func FatalScript(message string, tokens ...string) ScriptFunc {
	return func(chat.AskRequest) []chat.Event {
		events := []chat.Event{
			{Type: chat.EventAgentStart, Agent: "coach"},
		}
		for _, tok := range tokens {
			events = append(events, chat.Event{Type: chat.EventToken, Content: tok})
		}
		events = append(events, chat.Event{Type: chat.EventError, Message: message, Fatal: true})
		return events
	}
}
