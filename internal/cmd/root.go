package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Ketryx/build-api-reporter/internal/config"
	"github.com/Ketryx/build-api-reporter/internal/ketryx"
	"github.com/Ketryx/build-api-reporter/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "ketryx-report <config-file>",
	Short: "Upload build artifacts and report builds to Ketryx",
	Long: `ketryx-report uploads build artifacts (JUnit XML and Cucumber JSON test
results, SBOM files) to a Ketryx instance and registers a build record
referencing them.

Builds are described in a YAML configuration file and processed strictly in
file order. Connection settings come from the environment (KETRYX_URL,
KETRYX_PROJECT, KETRYX_API_KEY, KETRYX_VERSION); a .env file in the working
directory is honored.`,
	Version:       "1.0.0",
	Args:          cobra.ExactArgs(1),
	RunE:          runReport,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// setupLogging configures logrus from the LOG_LEVEL environment variable.
func setupLogging() {
	levelName := os.Getenv("LOG_LEVEL")
	if levelName == "" {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		logrus.Errorln("Invalid log level specified:", err)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func runReport(cmd *cobra.Command, args []string) error {
	setupLogging()

	serviceConfig, err := ketryx.FromEnv()
	if err != nil {
		return err
	}

	buildConfig, err := config.Load(args[0])
	if err != nil {
		return err
	}

	// Validate every artifact pattern before the first network call, and
	// surface all problems at once.
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

	client := ketryx.NewClient(serviceConfig)

	for _, build := range buildConfig.Builds {
		var artifacts []ketryx.Artifact

		switch build.Type {
		case config.TypeTestResults:
			artifacts, err = client.UploadTestResults(build.TestResults.JUnit, build.TestResults.Cucumber)
			if err != nil {
				return err
			}
		case config.TypeSBOM:
			for _, sbom := range build.SBOMs {
				uploaded, err := client.UploadSBOM([]string{sbom.File}, sbom.Type)
				if err != nil {
					return err
				}
				artifacts = append(artifacts, uploaded...)
			}
		default:
			fmt.Printf("%s %s\n", ui.IconWarning,
				ui.WarningStyle.Render(fmt.Sprintf("Skipping build %q: unknown type %q", build.Name, build.Type)))
			continue
		}

		buildID, err := client.ReportBuild(build.Name, artifacts)
		if err != nil {
			return err
		}

		fmt.Printf("%s Reported %s to Ketryx: %s\n", ui.IconSuccess, build.Name, buildID)
	}

	return nil
}
