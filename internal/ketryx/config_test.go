package ketryx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("KETRYX_URL", "https://app.ketryx.example")
	t.Setenv("KETRYX_PROJECT", "PRJ-1")
	t.Setenv("KETRYX_API_KEY", "secret-key")
	t.Setenv("KETRYX_VERSION", "1.2.3")
	t.Setenv("GITHUB_SHA", "")
	t.Setenv("GITHUB_SERVER_URL", "")
	t.Setenv("GITHUB_REPOSITORY", "")
}

func TestFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GITHUB_SHA", "abc123")
	t.Setenv("GITHUB_SERVER_URL", "https://github.com")
	t.Setenv("GITHUB_REPOSITORY", "acme/widget")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://app.ketryx.example", cfg.BaseURL)
	assert.Equal(t, "PRJ-1", cfg.Project)
	assert.Equal(t, "secret-key", cfg.APIKey)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "abc123", cfg.CommitSHA)
	assert.Equal(t, "https://github.com", cfg.SourceURL)
	assert.Equal(t, "acme/widget", cfg.Repository)
}

func TestFromEnvTrimsTrailingSlash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KETRYX_URL", "https://app.ketryx.example/")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://app.ketryx.example", cfg.BaseURL)
}

func TestFromEnvMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KETRYX_API_KEY", "")
	t.Setenv("KETRYX_VERSION", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KETRYX_API_KEY")
	assert.Contains(t, err.Error(), "KETRYX_VERSION")
}

func TestFromEnvOptionalCIContext(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.SourceURL)
	assert.Empty(t, cfg.Repository)
	assert.Empty(t, cfg.CommitSHA)
}
