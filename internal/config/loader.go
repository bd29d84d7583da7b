package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// marshalIndent and writeFile are used by WriteDefault; tests may replace to force errors.
var (
	marshalIndent = json.MarshalIndent
	writeFile     = os.WriteFile
)

// Default returns a Config with placeholder connection values and sane
// logging/check defaults.
func Default() *Config {
	return &Config{
		SAP: SAPConfig{
			Host:   "sap.example.com",
			SysNr:  "00",
			Client: "100",
			User:   "RFC_USER",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Check:   CheckConfig{MaxCodeLines: DefaultMaxCodeLines},
	}
}

// WriteDefault writes a starter config file to path. The format follows the
// file extension (.yaml/.yml for YAML, anything else JSON).
func WriteDefault(path string) error {
	cfg := Default()
	var data []byte
	var err error
	if isYAMLPath(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = marshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return writeFile(path, data, 0600)
}

// Load reads a config file (JSON or YAML by extension), overlays environment
// variables on empty fields, fills defaults, and validates the SAP section.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	var c Config
	if isYAMLPath(path) {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("config parse: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("config parse: %w", err)
		}
	}
	applyEnv(&c)
	applyDefaults(&c)
	if err := c.SAP.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromEnv builds a Config purely from environment variables:
// SAP_HOST, SAP_SYSNR, SAP_CLIENT, SAP_USER, SAP_PASSWORD, SAP_ROUTER
// plus LOG_LEVEL / LOG_FORMAT / LOG_FILE.
func FromEnv() (*Config, error) {
	var c Config
	applyEnv(&c)
	applyDefaults(&c)
	if err := c.SAP.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyEnv fills empty fields from the environment; explicit file values win.
func applyEnv(c *Config) {
	setIfEmpty(&c.SAP.Host, "SAP_HOST")
	setIfEmpty(&c.SAP.SysNr, "SAP_SYSNR")
	setIfEmpty(&c.SAP.Client, "SAP_CLIENT")
	setIfEmpty(&c.SAP.User, "SAP_USER")
	setIfEmpty(&c.SAP.Password, "SAP_PASSWORD")
	setIfEmpty(&c.SAP.SAPRouter, "SAP_ROUTER")
	setIfEmpty(&c.Logging.Level, "LOG_LEVEL")
	setIfEmpty(&c.Logging.Format, "LOG_FORMAT")
	setIfEmpty(&c.Logging.File, "LOG_FILE")
}

func applyDefaults(c *Config) {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Check.MaxCodeLines <= 0 {
		c.Check.MaxCodeLines = DefaultMaxCodeLines
	}
	if c.Logging.File != "" {
		c.Logging.File = filepath.Clean(c.Logging.File)
	}
}

func setIfEmpty(dst *string, env string) {
	if strings.TrimSpace(*dst) == "" {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
