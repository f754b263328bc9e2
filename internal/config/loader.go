package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"hotelbooker/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig.
const (
	EnvVarEnv      = "HOTELBOOKER_ENV"
	EnvVarURL      = "HOTELBOOKER_URL"
	EnvVarUsername = "HOTELBOOKER_USERNAME"
	EnvVarPassword = "HOTELBOOKER_PASSWORD"
	EnvVarTags     = "HOTELBOOKER_TAGS"
	EnvVarBrowser  = "HOTELBOOKER_BROWSER"
	EnvVarHeadless = "HOTELBOOKER_HEADLESS"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

// Override adjusts the configuration after every other layer, such as
// command-line flags.
type Override func(*Config)

// LoadConfig layers defaults, the YAML file at configPath, the environment
// and overrides, then validates the result. An empty configPath reads
// DefaultConfigFile and tolerates its absence; an explicit path must exist.
func LoadConfig(configPath string, overrides ...Override) (Config, error) {
	cfg, err := loadFile(configPath)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnvironment(&cfg); err != nil {
		return Config{}, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	logging.Info("ConfigLoader", "Using environment %s with %s/%s", cfg.EnvName(), cfg.Browser.Driver, cfg.Browser.Name)
	return cfg, nil
}

func loadFile(configPath string) (Config, error) {
	config := GetDefaultConfig()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.Info("ConfigLoader", "No %s found, using defaults", configPath)
			return config, nil
		}
		return Config{}, &ConfigurationError{FilePath: configPath, Message: "cannot read file", Err: err}
	}

	if err := decode(data, &config); err != nil {
		return Config{}, &ConfigurationError{FilePath: configPath, Message: err.Error(), Err: err}
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", configPath)
	return config, nil
}

// decode unmarshals over the defaults already in config and rejects
// unknown keys.
func decode(data []byte, config *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if config.Environments == nil {
		config.Environments = map[string]Environment{}
	}
	return nil
}

func applyEnvironment(cfg *Config) error {
	if v, ok := lookupEnv(EnvVarEnv); ok && v != "" {
		cfg.Env = v
	}
	if v, ok := lookupEnv(EnvVarTags); ok {
		cfg.Tags = v
	}
	if v, ok := lookupEnv(EnvVarBrowser); ok && v != "" {
		cfg.Browser.Name = v
	}
	if v, ok := lookupEnv(EnvVarHeadless); ok && v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigurationError{Field: EnvVarHeadless, Value: v, Message: "must be true or false", Err: err}
		}
		cfg.Browser.Headless = headless
	}

	overrides := map[string]func(*Environment, string){
		EnvVarURL:      func(e *Environment, v string) { e.URL = v },
		EnvVarUsername: func(e *Environment, v string) { e.Username = v },
		EnvVarPassword: func(e *Environment, v string) { e.Password = v },
	}
	key, env := cfg.environmentKey()
	changed := false
	for name, set := range overrides {
		if v, ok := lookupEnv(name); ok && v != "" {
			set(&env, v)
			changed = true
		}
	}
	if changed {
		cfg.Environments[key] = env
		logging.Debug("ConfigLoader", "Environment %s overridden from process environment", key)
	}
	return nil
}

// environmentKey finds the map key of the selected environment, matching
// case-insensitively, or the lower-cased name for a new entry.
func (c Config) environmentKey() (string, Environment) {
	for name, env := range c.Environments {
		if strings.EqualFold(name, c.EnvName()) {
			return name, env
		}
	}
	return c.EnvName(), Environment{}
}

// String renders the configuration as YAML with the password masked.
func (c Config) String() string {
	masked := c
	masked.Environments = make(map[string]Environment, len(c.Environments))
	for name, env := range c.Environments {
		if env.Password != "" {
			env.Password = "******"
		}
		masked.Environments[name] = env
	}
	out, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("<unprintable configuration: %v>", err)
	}
	return string(out)
}
