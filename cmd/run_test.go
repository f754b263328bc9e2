package cmd

import (
	"io"
	"io/fs"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbooker/internal/config"
	"hotelbooker/internal/report"
)

func parseRunFlags(t *testing.T, args ...string) (*pflag.FlagSet, *runOptions) {
	t.Helper()
	opts := &runOptions{}
	f := pflag.NewFlagSet("run", pflag.ContinueOnError)
	bindRunFlags(f, opts)
	require.NoError(t, f.Parse(args))
	return f, opts
}

func TestFlagOverrides(t *testing.T) {
	f, opts := parseRunFlags(t, "--env", "uat", "--tags", "@rates", "-c", "3", "--headless=false", "--driver", "chromedp")

	cfg := config.GetDefaultConfig()
	flagOverrides(f, opts)(&cfg)

	assert.Equal(t, "uat", cfg.Env)
	assert.Equal(t, "@rates", cfg.Tags)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "chromedp", cfg.Browser.Driver)
	assert.Equal(t, "chromium", cfg.Browser.Name, "unset flags leave the configuration alone")
	assert.Equal(t, "pretty", opts.format)
}

func TestFlagOverrides_NoFlags(t *testing.T) {
	f, opts := parseRunFlags(t)

	cfg := config.GetDefaultConfig()
	cfg.Tags = "@smoke"
	cfg.Browser.Headless = false
	want := cfg.String()
	flagOverrides(f, opts)(&cfg)

	assert.Equal(t, want, cfg.String(), "the headless default does not override the file")
}

func TestFeatureSource(t *testing.T) {
	fsys, paths, disk := featureSource(nil)
	assert.False(t, disk)
	assert.Equal(t, []string{"."}, paths)
	matches, err := fs.Glob(fsys, "*.feature")
	require.NoError(t, err)
	assert.Contains(t, matches, "login.feature")

	_, paths, disk = featureSource([]string{"features/login.feature"})
	assert.True(t, disk)
	assert.Equal(t, []string{"features/login.feature"}, paths)
}

func TestSuiteError(t *testing.T) {
	assert.NoError(t, suiteError(0, report.Snapshot{}))

	err := suiteError(1, report.Snapshot{Failed: 2})
	var failed *TestFailureError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 2, failed.Failed)
	assert.Equal(t, ExitCodeTestFailure, getExitCode(err))

	err = suiteError(2, report.Snapshot{})
	require.Error(t, err)
	assert.Equal(t, ExitCodeError, getExitCode(err))
}

func TestRunSuite_ConfigurationError(t *testing.T) {
	cmd := newRunCmd()
	cmd.SetArgs([]string{"--config", "does-not-exist.yaml", "-q"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCodeConfigError, getExitCode(err))
}
