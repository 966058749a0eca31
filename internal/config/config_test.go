package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AI_TRIGGER_MODE", "")
	t.Setenv("RAG_TOP_K", "not-a-number")

	cfg := Load()

	assert.Equal(t, "", cfg.Ai.TriggerMode)
	assert.Equal(t, 5, cfg.Ai.TopK, "invalid ints fall back to the default")
	assert.Equal(t, 30, cfg.Ai.HistoryLimit)
	assert.Equal(t, "nexus", cfg.Ai.MentionKeyword)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AI_TRIGGER_MODE", "OBSERVER")
	t.Setenv("AI_MENTION_KEYWORD", "Nexus")
	t.Setenv("GENERATION_MAX_RETRIES", "5")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("VECTOR_BACKEND", "memory")

	cfg := Load()

	assert.Equal(t, "observer", cfg.Ai.TriggerMode)
	assert.Equal(t, "nexus", cfg.Ai.MentionKeyword)
	assert.Equal(t, 5, cfg.Ai.GenerationRetries)
	assert.True(t, cfg.App.OtelEnabled)
	assert.Equal(t, "memory", cfg.Vector.Backend)
}
