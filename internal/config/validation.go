package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"hotelbooker/internal/browser"
)

var knownDrivers = []string{string(browser.DriverPlaywright), string(browser.DriverChromedp)}

// Validate checks a fully layered configuration.
func Validate(cfg Config) error {
	var errs ConfigurationErrors

	if strings.TrimSpace(cfg.Env) == "" {
		errs.Add("env", cfg.Env, "is required")
	}

	engine, err := browser.NormalizeBrowser(cfg.Browser.Name)
	if err != nil {
		errs.Add("browser.name", cfg.Browser.Name, "must be one of: chromium, firefox, webkit")
	}
	driver := strings.ToLower(cfg.Browser.Driver)
	if err := validateOneOf(driver, knownDrivers); err != nil {
		errs.Add("browser.driver", cfg.Browser.Driver, "%s", err)
	} else if driver == string(browser.DriverChromedp) && engine != "" && engine != "chromium" {
		errs.Add("browser.driver", cfg.Browser.Driver, "only drives chromium, not %s", engine)
	}
	if cfg.Browser.WindowWidth < 0 || cfg.Browser.WindowHeight < 0 {
		errs.Add("browser.windowWidth", fmt.Sprintf("%dx%d", cfg.Browser.WindowWidth, cfg.Browser.WindowHeight), "window size cannot be negative")
	}

	if cfg.Concurrency < 1 {
		errs.Add("concurrency", cfg.Concurrency, "must be at least 1")
	}
	if strings.TrimSpace(cfg.ReportsDir) == "" {
		errs.Add("reportsDir", cfg.ReportsDir, "is required")
	}

	for field, d := range map[string]time.Duration{
		"waits.default": cfg.Waits.Default,
		"waits.short":   cfg.Waits.Short,
		"waits.long":    cfg.Waits.Long,
	} {
		if d < 0 {
			errs.Add(field, d.String(), "cannot be negative")
		}
	}

	validateEnvironment(cfg, &errs)

	// map iteration above makes the order random
	slices.SortStableFunc(errs, func(a, b *ConfigurationError) int {
		return strings.Compare(a.Field, b.Field)
	})
	return errs.Err()
}

func validateEnvironment(cfg Config, errs *ConfigurationErrors) {
	if cfg.EnvName() == "" {
		return
	}
	env, ok := cfg.ActiveEnvironment()
	if !ok {
		errs.Add("env", cfg.Env, "no environment named %q (known: %s)", cfg.Env, strings.Join(environmentNames(cfg), ", "))
		return
	}

	prefix := "environments." + cfg.EnvName()
	if env.URL == "" {
		errs.Add(prefix+".url", env.URL, "is required")
	} else if u, err := url.Parse(env.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs.Add(prefix+".url", env.URL, "must be an absolute URL")
	}
	if strings.TrimSpace(env.Username) == "" {
		errs.Add(prefix+".username", env.Username, "is required")
	}
	if env.Password == "" {
		errs.Add(prefix+".password", "", "is required (set HOTELBOOKER_PASSWORD to keep it out of the file)")
	}
}

func environmentNames(cfg Config) []string {
	names := make([]string, 0, len(cfg.Environments))
	for name := range cfg.Environments {
		names = append(names, name)
	}
	slices.Sort(names)
	if len(names) == 0 {
		return []string{"none"}
	}
	return names
}

// validateOneOf checks if a value is in a list of allowed values
func validateOneOf(value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("must be one of: %s", strings.Join(allowed, ", "))
}
