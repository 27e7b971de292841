package cmd

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Ketryx/build-api-reporter/internal/config"
	"github.com/Ketryx/build-api-reporter/internal/ui"
)

//go:embed schemas/ketryx-config.v1.schema.json
var schemaFS embed.FS

var validateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a build configuration file offline",
	Long: `Validates the build configuration file against the JSON Schema and checks
that every declared artifact pattern matches at least one file on disk.
No request is made to Ketryx.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]

	fmt.Printf("%s Validating %s...\n", ui.IconSearch, configPath)

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// gojsonschema works on JSON documents, so decode the YAML first.
	var document interface{}
	if err := yaml.Unmarshal(configBytes, &document); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	documentBytes, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to convert config to JSON: %w", err)
	}

	schemaBytes, err := schemaFS.ReadFile("schemas/ketryx-config.v1.schema.json")
	if err != nil {
		return fmt.Errorf("failed to load JSON schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(documentBytes),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		fmt.Printf("\n%s Validation failed with the following errors:\n\n", ui.IconError)
		for i, desc := range result.Errors() {
			fmt.Printf("%d. %s\n", i+1, desc.String())
			fmt.Printf("   Field: %s\n\n", desc.Field())
		}
		return fmt.Errorf("validation failed with %d errors", len(result.Errors()))
	}

	buildConfig, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := config.CheckArtifacts(buildConfig); err != nil {
		var missingErr *config.MissingFilesError
		if errors.As(err, &missingErr) {
			fmt.Println("\nMissing files:")
			for _, m := range missingErr.Missing {
				fmt.Printf("  - %s\n", ui.ErrorStyle.Render(m.String()))
			}
			return fmt.Errorf("%d artifact pattern(s) matched no files", len(missingErr.Missing))
		}
		return err
	}

	fmt.Printf("%s %s is valid, all artifact patterns match files\n", ui.IconSuccess, configPath)
	return nil
}
