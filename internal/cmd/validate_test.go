package cmd

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunValidateOK(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "junit", "a.xml"), "<a/>")

	configPath := filepath.Join(dir, "ketryx.yaml")
	writeFile(t, configPath, fmt.Sprintf(`
builds:
  - name: unit-tests
    type: test-results
    artifacts:
      junit:
        - %s
`, filepath.Join(dir, "junit", "*.xml")))

	assert.NoError(t, runValidate(validateCmd, []string{configPath}))
}

func TestRunValidateSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ketryx.yaml")
	writeFile(t, configPath, `
builds:
  - type: test-results
    artifacts:
      junit: [out/*.xml]
`)

	// "name" is required by the schema.
	err := runValidate(validateCmd, []string{configPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestRunValidateRejectsNonListBuilds(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ketryx.yaml")
	writeFile(t, configPath, "builds: not-a-list\n")

	err := runValidate(validateCmd, []string{configPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestRunValidateReportsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ketryx.yaml")
	writeFile(t, configPath, fmt.Sprintf(`
builds:
  - name: unit-tests
    type: test-results
    artifacts:
      junit:
        - %s
`, filepath.Join(dir, "junit", "*.xml")))

	err := runValidate(validateCmd, []string{configPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched no files")
}
