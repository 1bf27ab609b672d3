package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeHolderDefaults(t *testing.T) {
	holder, err := NewRuntimeHolder()
	require.NoError(t, err)

	cfg := holder.Current()
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, float64(60), cfg.ChatTimeoutSeconds)
	assert.Equal(t, float64(30), cfg.EmbedTimeoutSeconds)
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "polaris", cfg.AppName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24, cfg.AuthTokenExpiryHours)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Positive(t, cfg.AuthRateLimit)
}
