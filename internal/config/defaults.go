package config

import "hotelbooker/internal/waits"

const (
	// DefaultConfigFile is read when no --config is given.
	DefaultConfigFile = "hotelbooker.yaml"

	// DefaultEnv is the environment used when none is configured.
	DefaultEnv = "qa"

	// DefaultReportsDir is where run directories are created.
	DefaultReportsDir = "reports"
)

// GetDefaultConfig returns the built-in configuration. It has no
// environments; those always come from the file or the environment.
func GetDefaultConfig() Config {
	return Config{
		Env: DefaultEnv,
		Browser: BrowserConfig{
			Name:         "chromium",
			Driver:       "playwright",
			Headless:     true,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Concurrency: 1,
		ReportsDir:  DefaultReportsDir,
		Waits: WaitsConfig{
			Default: waits.DefaultTimeout,
			Short:   waits.ShortTimeout,
			Long:    waits.LongTimeout,
		},
		Environments: map[string]Environment{},
	}
}
