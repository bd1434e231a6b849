package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"salesagent/pkg/agent/llm"
)

func TestConvertMessagesToGemini(t *testing.T) {
	messages := []llm.CompletionMessage{
		llm.NewSystemMessage("persona"),
		llm.NewUserMessage("hi"),
		llm.NewAssistantMessage("hello!"),
		llm.NewSystemMessage("RAG CONTEXT: {}"),
		llm.NewUserMessage("pricing?"),
	}

	contents, system, err := convertMessagesToGemini(messages)
	require.NoError(t, err)
	assert.Equal(t, "persona\n\nRAG CONTEXT: {}", system)
	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "pricing?", contents[2].Parts[0].Text)
}

func TestConvertMessagesToGeminiErrors(t *testing.T) {
	_, _, err := convertMessagesToGemini(nil)
	assert.Error(t, err)

	_, _, err = convertMessagesToGemini([]llm.CompletionMessage{llm.NewSystemMessage("only system")})
	assert.Error(t, err)

	_, _, err = convertMessagesToGemini([]llm.CompletionMessage{{Role: "tool", Content: "x"}})
	assert.Error(t, err)
}

func TestGetStopReason(t *testing.T) {
	assert.Equal(t, "unknown", getStopReason(nil))
	assert.Equal(t, "stop", getStopReason(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}},
	}))
}
