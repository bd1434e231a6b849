package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesagent/pkg/agent/llm"
)

func TestEnsureAlternationHoistsSystemAndMergesUsers(t *testing.T) {
	in := []llm.CompletionMessage{
		llm.NewSystemMessage("persona"),
		llm.NewUserMessage("hi"),
		llm.NewAssistantMessage("hello"),
		llm.NewSystemMessage("known info"),
		llm.NewUserMessage("pricing?"),
		llm.NewUserMessage("also refunds?"),
	}

	system, out, err := ensureAlternation(in)
	require.NoError(t, err)
	assert.Equal(t, "persona\n\nknown info", system)
	require.Len(t, out, 3)
	assert.Equal(t, llm.RoleUser, out[0].Role)
	assert.Equal(t, llm.RoleAssistant, out[1].Role)
	assert.Equal(t, "pricing?\n\nalso refunds?", out[2].Content)
}

func TestEnsureAlternationMergesAssistants(t *testing.T) {
	in := []llm.CompletionMessage{
		llm.NewUserMessage("a"),
		llm.NewAssistantMessage("b"),
		llm.NewAssistantMessage("c"),
		llm.NewUserMessage("d"),
	}
	_, out, err := ensureAlternation(in)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "b\n\nc", out[1].Content)
}

func TestEnsureAlternationRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		in   []llm.CompletionMessage
	}{
		{"empty", nil},
		{"system only", []llm.CompletionMessage{llm.NewSystemMessage("s")}},
		{"starts with assistant", []llm.CompletionMessage{llm.NewAssistantMessage("a"), llm.NewUserMessage("u")}},
		{"ends with assistant", []llm.CompletionMessage{llm.NewUserMessage("u"), llm.NewAssistantMessage("a")}},
		{"unknown role", []llm.CompletionMessage{{Role: "tool", Content: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ensureAlternation(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestGetModelName(t *testing.T) {
	c := NewClaudeClientWithModel("key", "claude-sonnet-4-5")
	assert.Equal(t, "claude-sonnet-4-5", c.GetModelName())
}
