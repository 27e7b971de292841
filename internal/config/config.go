package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissingBuilds is returned by Load when the config file has no
// top-level "builds" section.
var ErrMissingBuilds = errors.New(`missing "builds" section`)

// BuildType identifies what kind of artifacts a build entry carries.
type BuildType string

const (
	TypeTestResults BuildType = "test-results"
	TypeSBOM        BuildType = "sbom"
)

// Config represents the build-report configuration file.
type Config struct {
	Builds []Build `yaml:"builds"`
}

// Build is one entry of the "builds" list. The shape of its artifacts
// depends on Type: a mapping of junit/cucumber pattern lists for
// test-results, a sequence of file/type pairs for sbom. Entries with an
// unrecognized type are kept (the caller decides how to handle them) but
// carry no artifact spec.
type Build struct {
	Name        string
	Type        BuildType
	TestResults *TestResults
	SBOMs       []SBOMArtifact
}

// TestResults holds the glob pattern lists of a test-results build.
// Either list may be absent in the file, which is the same as empty.
type TestResults struct {
	JUnit    []string `yaml:"junit"`
	Cucumber []string `yaml:"cucumber"`
}

// SBOMArtifact is one SBOM file reference of an sbom build.
type SBOMArtifact struct {
	File string `yaml:"file"`
	Type string `yaml:"type"`
}

// UnmarshalYAML decodes a build entry, deferring the artifacts node until
// the type is known.
func (b *Build) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name      string    `yaml:"name"`
		Type      BuildType `yaml:"type"`
		Artifacts yaml.Node `yaml:"artifacts"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	b.Name = raw.Name
	b.Type = raw.Type

	switch raw.Type {
	case TypeTestResults:
		tr := &TestResults{}
		if raw.Artifacts.Kind != 0 {
			if err := raw.Artifacts.Decode(tr); err != nil {
				return fmt.Errorf("build %q: %w", raw.Name, err)
			}
		}
		b.TestResults = tr
	case TypeSBOM:
		if raw.Artifacts.Kind != 0 {
			if err := raw.Artifacts.Decode(&b.SBOMs); err != nil {
				return fmt.Errorf("build %q: %w", raw.Name, err)
			}
		}
	default:
		// Unknown types are skipped downstream; their artifacts node can
		// have any shape, so it is left undecoded.
	}

	return nil
}

// Load reads and parses the build configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Builds == nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, ErrMissingBuilds)
	}

	return &config, nil
}
