package factory

import (
	"testing"

	"nexus-chat-be/pkg/llm/ollama"
	"nexus-chat-be/pkg/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(Config{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	p, err = NewLLMProvider(Config{Provider: "openai", Model: "llama-3.1-8b-instant", APIKey: "k", BaseURL: "https://api.groq.com/openai/v1"})
	require.NoError(t, err)
	_, ok = p.(*openai.Provider)
	assert.True(t, ok)

	_, err = NewLLMProvider(Config{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewLLMProvider(Config{Provider: "gemini"})
	assert.ErrorContains(t, err, "unsupported")
}
