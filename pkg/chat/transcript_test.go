package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript(t *testing.T) {
	t.Run("should keep messages in append order", func(t *testing.T) {
		tr := NewTranscript()
		tr.Append(NewUserMessage("first"))
		tr.Append(NewAssistantPlaceholder())
		tr.Append(NewUserMessage("second"))

		msgs := tr.Messages()
		require.Len(t, msgs, 3)
		assert.Equal(t, "first", msgs[0].Content)
		assert.Equal(t, RoleAssistant, msgs[1].Role)
		assert.Equal(t, "second", msgs[2].Content)
	})

	t.Run("should append content by id in order", func(t *testing.T) {
		tr := NewTranscript()
		id := tr.Append(NewAssistantPlaceholder())

		tr.AppendContent(id, "Hello")
		tr.AppendContent(id, " world")

		assert.Equal(t, "Hello world", tr.Messages()[0].Content)
	})

	t.Run("should ignore mutations for unknown ids", func(t *testing.T) {
		tr := NewTranscript()
		tr.Append(NewUserMessage("untouched"))

		tr.AppendContent("missing", "x")
		tr.SetContent("missing", "x")
		tr.SetProvider("missing", "x")
		tr.FinishStreaming("missing", "x")

		assert.Equal(t, "untouched", tr.Messages()[0].Content)
	})

	t.Run("should target by id even when other messages are appended", func(t *testing.T) {
		tr := NewTranscript()
		id := tr.Append(NewAssistantPlaceholder())
		tr.Append(NewUserMessage("later"))

		tr.AppendContent(id, "still mine")

		msgs := tr.Messages()
		assert.Equal(t, "still mine", msgs[0].Content)
		assert.Equal(t, "later", msgs[1].Content)
	})

	t.Run("should finish streaming and record agent", func(t *testing.T) {
		tr := NewTranscript()
		id := tr.Append(NewAssistantPlaceholder())

		tr.FinishStreaming(id, "trainer")

		msg := tr.Messages()[0]
		assert.False(t, msg.IsStreaming)
		assert.Equal(t, "trainer", msg.Agent)
	})

	t.Run("should keep an existing agent when finished with empty agent", func(t *testing.T) {
		tr := NewTranscript()
		id := tr.Append(NewAssistantPlaceholder())
		tr.FinishStreaming(id, "trainer")
		tr.FinishStreaming(id, "")

		assert.Equal(t, "trainer", tr.Messages()[0].Agent)
	})

	t.Run("should count streaming messages", func(t *testing.T) {
		tr := NewTranscript()
		assert.Equal(t, 0, tr.StreamingCount())

		id := tr.Append(NewAssistantPlaceholder())
		assert.Equal(t, 1, tr.StreamingCount())

		tr.FinishStreaming(id, "")
		assert.Equal(t, 0, tr.StreamingCount())
	})

	t.Run("should return an independent snapshot", func(t *testing.T) {
		tr := NewTranscript()
		id := tr.Append(NewAssistantPlaceholder())

		snapshot := tr.Messages()
		tr.AppendContent(id, "mutated after snapshot")

		assert.Empty(t, snapshot[0].Content)
	})

	t.Run("should clear all messages", func(t *testing.T) {
		tr := NewTranscript()
		tr.Append(NewUserMessage("one"))
		tr.Append(NewUserMessage("two"))

		tr.Clear()

		assert.Equal(t, 0, tr.Len())
		assert.Empty(t, tr.Messages())
	})
}

func TestMessages(t *testing.T) {
	t.Run("should trim user message content", func(t *testing.T) {
		msg := NewUserMessage("  hello  ")
		assert.Equal(t, "hello", msg.Content)
		assert.True(t, msg.IsUser())
		assert.False(t, msg.IsStreaming)
		assert.NotEmpty(t, msg.ID)
	})

	t.Run("should create streaming assistant placeholders", func(t *testing.T) {
		msg := NewAssistantPlaceholder()
		assert.True(t, msg.IsAssistant())
		assert.True(t, msg.IsStreaming)
		assert.True(t, msg.IsEmpty())
	})

	t.Run("should assign unique ids", func(t *testing.T) {
		assert.NotEqual(t, NewAssistantPlaceholder().ID, NewAssistantPlaceholder().ID)
	})
}
