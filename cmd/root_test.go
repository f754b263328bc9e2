package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbooker/internal/config"
)

func TestSetVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "hotelbooker", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("debug"))
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "hotelbooker version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})

	require.NoError(t, testCmd.Execute())
	assert.Equal(t, "hotelbooker version 1.0.0\n", buf.String())
}

func TestSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}

	for _, expected := range []string{"run", "clean", "install", "version", "self-update"} {
		assert.True(t, found[expected], "Expected subcommand %s to be registered", expected)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitCodeSuccess},
		{"test failure", &TestFailureError{Failed: 2, Status: 1}, ExitCodeTestFailure},
		{"wrapped test failure", fmt.Errorf("run: %w", &TestFailureError{Status: 1}), ExitCodeTestFailure},
		{"configuration", &config.ConfigurationError{Field: "env", Message: "is required"}, ExitCodeConfigError},
		{"configuration collection", config.ConfigurationErrors{
			{Field: "env", Message: "is required"},
			{Field: "concurrency", Message: "must be at least 1"},
		}, ExitCodeConfigError},
		{"other", errors.New("browser crashed"), ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestTestFailureError(t *testing.T) {
	assert.Equal(t, "3 steps failed", (&TestFailureError{Failed: 3, Status: 1}).Error())
	assert.Equal(t, "test suite exited with status 1", (&TestFailureError{Status: 1}).Error())
}
