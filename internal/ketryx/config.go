package ketryx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the process-wide Ketryx service configuration. It is
// constructed once at startup from the environment and passed explicitly
// to every component.
type Config struct {
	// BaseURL is the Ketryx instance URL, without a trailing slash.
	BaseURL string

	// Project is the Ketryx project id.
	Project string

	// APIKey authenticates every request (bearer token).
	APIKey string

	// Version is the release version being reported. When set it takes
	// precedence over CommitSHA in build reports.
	Version string

	// CommitSHA is the commit being built, usually from GITHUB_SHA.
	CommitSHA string

	// SourceURL and Repository describe where the build came from. Both
	// may be empty outside of CI.
	SourceURL  string
	Repository string
}

// FromEnv builds the configuration from environment variables, honoring a
// .env file in the working directory when one exists.
func FromEnv() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}
	v.AutomaticEnv()

	config := &Config{
		BaseURL:    strings.TrimRight(v.GetString("KETRYX_URL"), "/"),
		Project:    v.GetString("KETRYX_PROJECT"),
		APIKey:     v.GetString("KETRYX_API_KEY"),
		Version:    v.GetString("KETRYX_VERSION"),
		CommitSHA:  v.GetString("GITHUB_SHA"),
		SourceURL:  v.GetString("GITHUB_SERVER_URL"),
		Repository: v.GetString("GITHUB_REPOSITORY"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"KETRYX_URL", c.BaseURL},
		{"KETRYX_PROJECT", c.Project},
		{"KETRYX_API_KEY", c.APIKey},
		{"KETRYX_VERSION", c.Version},
	}

	var missing []string
	for _, env := range required {
		if env.value == "" {
			missing = append(missing, env.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
