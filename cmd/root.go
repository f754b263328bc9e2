package cmd

import (
	"errors"
	"fmt"
	"os"

	"hotelbooker/internal/config"
	"hotelbooker/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates every scenario passed.
	ExitCodeSuccess = 0
	// ExitCodeTestFailure indicates at least one scenario failed.
	ExitCodeTestFailure = 1
	// ExitCodeConfigError indicates the configuration could not be loaded.
	ExitCodeConfigError = 2
	// ExitCodeError indicates any other error.
	ExitCodeError = 3
)

// TestFailureError is returned by run when the suite finished with
// failed scenarios.
type TestFailureError struct {
	Failed int
	Status int
}

func (e *TestFailureError) Error() string {
	if e.Failed > 0 {
		return fmt.Sprintf("%d steps failed", e.Failed)
	}
	return fmt.Sprintf("test suite exited with status %d", e.Status)
}

// debug enables verbose logging across the application.
var debug bool

// rootCmd represents the base command for the hotelbooker application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hotelbooker",
	Short: "Run the HotelBooker browser acceptance suite",
	Long: `hotelbooker drives a browser through the HotelBooker agent portal using
Gherkin feature files: login, client selection, hotel search and rate
selection. Each run writes an HTML report with screenshots and log files
below the reports directory.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if debug {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "hotelbooker version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var failed *TestFailureError
	if errors.As(err, &failed) {
		return ExitCodeTestFailure
	}

	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ExitCodeConfigError
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
