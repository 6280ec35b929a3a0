package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &CallsimConfig{}
	cfg.applyDefaults()

	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 50, cfg.MaxTurns)
	assert.Equal(t, "Hello", cfg.Opening)
	assert.Equal(t, "transcript.json", cfg.Output)
}

func TestLLMConfig(t *testing.T) {
	temp := 0.0
	retries := 5
	cfg := &CallsimConfig{
		Model:        "claude-sonnet-4-5",
		Endpoint:     "https://proxy.internal",
		APIKey:       "secret",
		Temperature:  &temp,
		Timeout:      "45s",
		Retries:      &retries,
		RetryBackoff: "250ms",
	}

	got, err := cfg.LLMConfig()
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", got.Model)
	assert.Equal(t, "https://proxy.internal", got.Endpoint)
	assert.Equal(t, "secret", got.APIKey)
	assert.Equal(t, 0.0, got.Temperature)
	assert.Equal(t, 45*time.Second, got.Timeout)
	assert.Equal(t, 5, got.Retries)
	assert.Equal(t, 250*time.Millisecond, got.RetryBackoff)
}

func TestLLMConfigDefaults(t *testing.T) {
	got, err := (&CallsimConfig{Model: "mock"}).LLMConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.8, got.Temperature)
	assert.Equal(t, 2*time.Minute, got.Timeout)
	assert.Equal(t, 2, got.Retries)
}

func TestLLMConfigInvalidDuration(t *testing.T) {
	_, err := (&CallsimConfig{Timeout: "soon"}).LLMConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")

	_, err = (&CallsimConfig{TurnDelay: "x"}).TurnDelayDuration()
	assert.Error(t, err)
}
