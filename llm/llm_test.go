package llm

import (
	"testing"

	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Providers(t *testing.T) {
	chat, embedder, err := New(config.LLM{
		Provider:       "openai",
		Token:          "sk-test",
		ChatModel:      "gpt-3.5-turbo",
		EmbeddingModel: "text-embedding-ada-002",
	})
	require.NoError(t, err)
	assert.NotNil(t, chat)
	assert.NotNil(t, embedder)

	chat, embedder, err = New(config.LLM{
		Provider:       "Ollama",
		Host:           "localhost",
		Port:           "11434",
		ChatModel:      "llama3",
		EmbeddingModel: "nomic-embed-text",
	})
	require.NoError(t, err)
	assert.NotNil(t, chat)
	assert.NotNil(t, embedder)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, _, err := New(config.LLM{Provider: "bard"})
	assert.ErrorContains(t, err, `unsupported llm provider "bard"`)
}
