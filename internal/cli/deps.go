package cli

import (
	"abapcheck/internal/config"
	"abapcheck/internal/rfc"
)

// Function variables for dependency injection in tests.
// Default values are the real implementations; tests may temporarily swap them.
var (
	configLoad         = config.Load
	configFromEnv      = config.FromEnv
	configWriteDefault = config.WriteDefault
	connectProbe       = defaultConnectProbe
)

func defaultConnectProbe(cfg config.SAPConfig) error {
	client := rfc.NewClient(cfg)
	if err := client.Connect(); err != nil {
		return err
	}
	client.Disconnect()
	return nil
}
