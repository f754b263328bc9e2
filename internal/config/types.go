package config

import (
	"strings"
	"time"

	"hotelbooker/internal/browser"
	"hotelbooker/internal/pages"
	"hotelbooker/internal/waits"
)

// Config is the top-level configuration structure for hotelbooker.
type Config struct {
	Env          string                 `yaml:"env"`
	Browser      BrowserConfig          `yaml:"browser"`
	Tags         string                 `yaml:"tags,omitempty"`
	Concurrency  int                    `yaml:"concurrency,omitempty"`
	ReportsDir   string                 `yaml:"reportsDir,omitempty"`
	Waits        WaitsConfig            `yaml:"waits,omitempty"`
	Environments map[string]Environment `yaml:"environments,omitempty"`
}

// BrowserConfig selects and sizes the browser under automation.
type BrowserConfig struct {
	Name         string `yaml:"name,omitempty"`     // chromium, firefox or webkit
	Driver       string `yaml:"driver,omitempty"`   // playwright or chromedp
	Headless     bool   `yaml:"headless"`           // run without a visible window
	ExecPath     string `yaml:"execPath,omitempty"` // browser binary, when not the bundled one
	WindowWidth  int    `yaml:"windowWidth,omitempty"`
	WindowHeight int    `yaml:"windowHeight,omitempty"`
}

// WaitsConfig overrides the wait coordinator timeouts.
type WaitsConfig struct {
	Default time.Duration `yaml:"default,omitempty"`
	Short   time.Duration `yaml:"short,omitempty"`
	Long    time.Duration `yaml:"long,omitempty"`
}

// Environment is one deployment of the application under test.
type Environment struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
}

// EnvName returns the selected environment key as it is looked up.
func (c Config) EnvName() string {
	return strings.ToLower(strings.TrimSpace(c.Env))
}

// ActiveEnvironment returns the entry selected by Env.
func (c Config) ActiveEnvironment() (Environment, bool) {
	for name, env := range c.Environments {
		if strings.EqualFold(name, c.EnvName()) {
			return env, true
		}
	}
	return Environment{}, false
}

// Credentials returns the login details of the active environment.
func (c Config) Credentials() pages.Credentials {
	env, _ := c.ActiveEnvironment()
	return pages.Credentials{URL: env.URL, Username: env.Username, Password: env.Password}
}

// BrowserOptions maps the browser section onto launcher options.
func (c Config) BrowserOptions() browser.Options {
	return browser.Options{
		Driver:       browser.Driver(strings.ToLower(c.Browser.Driver)),
		Browser:      c.Browser.Name,
		Headless:     c.Browser.Headless,
		ExecPath:     c.Browser.ExecPath,
		WindowWidth:  c.Browser.WindowWidth,
		WindowHeight: c.Browser.WindowHeight,
	}
}

// Timeouts maps the waits section onto coordinator timeouts. Zero values
// keep the coordinator defaults.
func (c Config) Timeouts() waits.Timeouts {
	return waits.Timeouts{
		Default: c.Waits.Default,
		Short:   c.Waits.Short,
		Long:    c.Waits.Long,
	}
}
