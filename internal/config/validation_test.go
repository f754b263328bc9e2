package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := GetDefaultConfig()
	cfg.Environments["qa"] = Environment{URL: "https://qa.hb.example/login.aspx", Username: "qa.agent", Password: "s3cret"}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		fields []string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:   "chromedp with chromium",
			modify: func(c *Config) { c.Browser.Driver = "ChromeDP" },
		},
		{
			name:   "chromedp with firefox",
			modify: func(c *Config) { c.Browser.Driver = "chromedp"; c.Browser.Name = "firefox" },
			fields: []string{"browser.driver"},
		},
		{
			name:   "unknown browser and driver",
			modify: func(c *Config) { c.Browser.Name = "lynx"; c.Browser.Driver = "selenium" },
			fields: []string{"browser.driver", "browser.name"},
		},
		{
			name:   "zero concurrency",
			modify: func(c *Config) { c.Concurrency = 0 },
			fields: []string{"concurrency"},
		},
		{
			name:   "negative waits",
			modify: func(c *Config) { c.Waits.Short = -1; c.Waits.Long = -1 },
			fields: []string{"waits.long", "waits.short"},
		},
		{
			name: "relative url",
			modify: func(c *Config) {
				c.Environments["qa"] = Environment{URL: "/login.aspx", Username: "u", Password: "p"}
			},
			fields: []string{"environments.qa.url"},
		},
		{
			name:   "no environments",
			modify: func(c *Config) { c.Environments = nil },
			fields: []string{"env"},
		},
		{
			name:   "empty env",
			modify: func(c *Config) { c.Env = " " },
			fields: []string{"env"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := Validate(cfg)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var fields []string
			var many ConfigurationErrors
			var one *ConfigurationError
			switch {
			case errors.As(err, &many):
				for _, e := range many {
					fields = append(fields, e.Field)
				}
			case errors.As(err, &one):
				fields = []string{one.Field}
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestConfigurationErrors(t *testing.T) {
	var errs ConfigurationErrors
	assert.False(t, errs.HasErrors())
	assert.NoError(t, errs.Err())

	errs.Add("concurrency", 0, "must be at least %d", 1)
	assert.Equal(t, "configuration: field 'concurrency': must be at least 1", errs.Err().Error())

	errs.Add("env", "", "is required")
	err := errs.Err()
	assert.Equal(t, "2 configuration errors: configuration: field 'concurrency': must be at least 1; configuration: field 'env': is required", err.Error())

	var one *ConfigurationError
	require.True(t, errors.As(err, &one))
	assert.Equal(t, "concurrency", one.Field)

	fileErr := &ConfigurationError{FilePath: "hotelbooker.yaml", Message: "cannot read file"}
	assert.Equal(t, "configuration hotelbooker.yaml: cannot read file", fileErr.Error())
}
