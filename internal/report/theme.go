package report

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"
)

const (
	// DefaultEnv is used when no environment name is configured.
	DefaultEnv = "DEV"

	executionDateFormat = "02-Jan-2006 15:04:05"
)

var envColors = map[string]string{
	"PROD": "#dc3545",
	"CERT": "#fd7e14",
	"INT":  "#ffc107",
	"DEV":  "#28a745",
}

// EnvColor returns the header color for an environment name. Unknown names
// get the DEV color.
func EnvColor(env string) string {
	if c, ok := envColors[strings.ToUpper(env)]; ok {
		return c
	}
	return envColors[DefaultEnv]
}

// NormalizeEnv upper-cases env and falls back to DefaultEnv.
func NormalizeEnv(env string) string {
	env = strings.ToUpper(strings.TrimSpace(env))
	if env == "" {
		return DefaultEnv
	}
	return env
}

// Meta is the report header and system information block.
type Meta struct {
	Title      string
	ReportName string
	Env        string
	EnvColor   string
	SystemInfo []InfoItem
}

// InfoItem is one row of the system information table.
type InfoItem struct {
	Name  string
	Value string
}

// RunInfo describes the run for the report header.
type RunInfo struct {
	Env               string
	Browser           string
	ConfiguredBrowser string
	URL               string
	Tags              string
}

func buildMeta(info RunInfo, started time.Time) Meta {
	env := NormalizeEnv(info.Env)
	tags := info.Tags
	if tags == "" {
		tags = "All Tests"
	}
	return Meta{
		Title:      fmt.Sprintf("Hotel Booker Automation Report - %s Environment", env),
		ReportName: fmt.Sprintf("Test Execution Results - %s Environment - Tag Filtering Enabled", env),
		Env:        env,
		EnvColor:   EnvColor(env),
		SystemInfo: []InfoItem{
			{"Environment", env},
			{"User", currentUser()},
			{"Go Version", runtime.Version()},
			{"Operating System", runtime.GOOS + "/" + runtime.GOARCH},
			{"Browser", info.Browser},
			{"Execution Date", started.Format(executionDateFormat)},
			{"Hotel Booker URL", info.URL},
			{"Configured Browser", info.ConfiguredBrowser},
			{"Executed Tags", tags},
		},
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
