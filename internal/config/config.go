package config

import (
	"fmt"
	"strings"
)

// DefaultMaxCodeLines bounds the number of source lines accepted per check request.
const DefaultMaxCodeLines = 10000

// Config is the full server configuration.
type Config struct {
	SAP     SAPConfig     `json:"sap" yaml:"sap"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Check   CheckConfig   `json:"check" yaml:"check"`
}

// SAPConfig holds the RFC connection parameters. The five mandatory fields are
// validated once at load time; downstream packages never re-validate them.
type SAPConfig struct {
	Host      string `json:"host" yaml:"host"`
	SysNr     string `json:"sysnr" yaml:"sysnr"`
	Client    string `json:"client" yaml:"client"`
	User      string `json:"user" yaml:"user"`
	Password  string `json:"password" yaml:"password"`
	SAPRouter string `json:"saprouter,omitempty" yaml:"saprouter,omitempty"` // e.g. "/H/saprouter.example.com/S/3299/H/"
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // "debug" | "info" | "warn" | "error"
	Format string `json:"format" yaml:"format"` // "text" | "json"
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

type CheckConfig struct {
	MaxCodeLines int `json:"maxCodeLines" yaml:"maxCodeLines"`
}

// Validate checks that every mandatory connection field is non-empty after
// trimming. The error names all missing fields so a misconfigured deployment
// can be fixed in one pass.
func (c SAPConfig) Validate() error {
	if missing := c.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("missing required SAP connection parameters: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MissingFields returns the names of mandatory connection fields that are
// empty after trimming, in a fixed order. Used by Validate and by the doctor
// command for its report.
func (c SAPConfig) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"host", c.Host},
		{"sysnr", c.SysNr},
		{"client", c.Client},
		{"user", c.User},
		{"password", c.Password},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Destination renders the connection target for log lines. Never includes
// the password.
func (c SAPConfig) Destination() string {
	if c.SAPRouter != "" {
		return fmt.Sprintf("%s -> %s:%s", c.SAPRouter, c.Host, c.SysNr)
	}
	return fmt.Sprintf("%s:%s", c.Host, c.SysNr)
}
