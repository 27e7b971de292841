package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MissingFile records one glob pattern that matched no file on disk.
type MissingFile struct {
	Build   string
	Kind    string
	Pattern string
}

func (m MissingFile) String() string {
	return fmt.Sprintf("%s file not found: %s (build %q)", m.Kind, m.Pattern, m.Build)
}

// MissingFilesError aggregates every unmatched pattern across every build
// so the operator can fix all of them in one pass.
type MissingFilesError struct {
	Missing []MissingFile
}

func (e *MissingFilesError) Error() string {
	lines := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		lines = append(lines, m.String())
	}
	return fmt.Sprintf("%d artifact pattern(s) matched no files:\n  - %s",
		len(e.Missing), strings.Join(lines, "\n  - "))
}

// CheckArtifacts expands every glob pattern of every build and verifies
// that each one matches at least one file. It is a pure filesystem scan:
// all problems are collected and returned together as a
// *MissingFilesError, never one at a time. Builds of unknown type carry
// no artifact spec and are skipped.
func CheckArtifacts(cfg *Config) error {
	var missing []MissingFile

	for _, build := range cfg.Builds {
		switch build.Type {
		case TypeTestResults:
			if build.TestResults == nil {
				continue
			}
			for _, pattern := range build.TestResults.JUnit {
				if !patternMatches(pattern) {
					missing = append(missing, MissingFile{Build: build.Name, Kind: "JUnit", Pattern: pattern})
				}
			}
			for _, pattern := range build.TestResults.Cucumber {
				if !patternMatches(pattern) {
					missing = append(missing, MissingFile{Build: build.Name, Kind: "Cucumber", Pattern: pattern})
				}
			}
		case TypeSBOM:
			for _, artifact := range build.SBOMs {
				if !patternMatches(artifact.File) {
					missing = append(missing, MissingFile{Build: build.Name, Kind: "SBOM", Pattern: artifact.File})
				}
			}
		}
	}

	if len(missing) > 0 {
		return &MissingFilesError{Missing: missing}
	}
	return nil
}

// Expand resolves a glob pattern against the filesystem, in match order.
func Expand(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return matches, nil
}

func patternMatches(pattern string) bool {
	matches, err := doublestar.FilepathGlob(pattern)
	return err == nil && len(matches) > 0
}
