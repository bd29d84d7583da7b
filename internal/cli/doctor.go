package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"abapcheck/internal/config"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	ConfigPath string // Path to configuration file; empty means environment only
	Fix        bool   // Attempt to fix issues automatically
	Deep       bool   // Also attempt an RFC connection to the configured system
}

// DoctorResult holds the result of a health check.
type DoctorResult struct {
	Name    string
	Status  string // "pass", "fail", "warn"
	Message string
}

// RunDoctor runs the doctor subcommand: performs health checks and optionally repairs.
// Returns exit code (0 for healthy, 1 for issues found).
func RunDoctor(opts DoctorOptions, stdout, stderr io.Writer) int {
	fmt.Fprintf(stdout, "Running abapcheck health checks...\n\n")

	results := []DoctorResult{}
	var cfg *config.Config

	// Check 1: Configuration source
	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); os.IsNotExist(err) {
			fixed := false
			if opts.Fix {
				fmt.Fprintf(stdout, "  [FIX] Creating default configuration...\n")
				if err := configWriteDefault(opts.ConfigPath); err != nil {
					fmt.Fprintf(stderr, "  Error: Failed to write default config: %v\n", err)
				} else {
					results = append(results, DoctorResult{
						Name:    "Config File",
						Status:  "warn",
						Message: "Created default configuration; fill in the SAP connection fields",
					})
					fixed = true
				}
			}
			if !fixed {
				results = append(results, DoctorResult{
					Name:    "Config File",
					Status:  "fail",
					Message: fmt.Sprintf("Configuration file not found: %s", opts.ConfigPath),
				})
			}
		} else {
			loaded, err := configLoad(opts.ConfigPath)
			if err != nil {
				results = append(results, DoctorResult{
					Name:    "Config File",
					Status:  "fail",
					Message: fmt.Sprintf("Invalid configuration: %v", err),
				})
			} else {
				cfg = loaded
				results = append(results, DoctorResult{
					Name:    "Config File",
					Status:  "pass",
					Message: fmt.Sprintf("Config valid (%s)", opts.ConfigPath),
				})
			}
		}
	} else {
		loaded, err := configFromEnv()
		if err != nil {
			results = append(results, DoctorResult{
				Name:    "Environment",
				Status:  "fail",
				Message: fmt.Sprintf("Environment incomplete: %v", err),
			})
		} else {
			cfg = loaded
			results = append(results, DoctorResult{
				Name:    "Environment",
				Status:  "pass",
				Message: "SAP connection settings found in environment",
			})
		}
	}

	// Check 2: Required connection fields
	if cfg != nil {
		if missing := cfg.SAP.MissingFields(); len(missing) > 0 {
			results = append(results, DoctorResult{
				Name:    "Connection Fields",
				Status:  "fail",
				Message: fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")),
			})
			cfg = nil
		} else {
			results = append(results, DoctorResult{
				Name:    "Connection Fields",
				Status:  "pass",
				Message: fmt.Sprintf("Destination: %s (client %s)", cfg.SAP.Destination(), cfg.SAP.Client),
			})
		}
	}

	// Deep check: open and close an RFC connection
	if opts.Deep {
		if cfg == nil {
			results = append(results, DoctorResult{
				Name:    "RFC Connection",
				Status:  "warn",
				Message: "Skipped: no usable configuration",
			})
		} else {
			fmt.Fprintf(stdout, "Connecting to %s...\n", cfg.SAP.Destination())
			if err := connectProbe(cfg.SAP); err != nil {
				results = append(results, DoctorResult{
					Name:    "RFC Connection",
					Status:  "fail",
					Message: fmt.Sprintf("Connection failed: %v", err),
				})
			} else {
				results = append(results, DoctorResult{
					Name:    "RFC Connection",
					Status:  "pass",
					Message: "Connected and disconnected successfully",
				})
			}
		}
	}

	// Print summary
	fmt.Fprintf(stdout, "\n--- Health Check Summary ---\n")
	passCount, failCount, warnCount := 0, 0, 0
	for _, r := range results {
		icon := "✓"
		if r.Status == "fail" {
			icon = "✗"
			failCount++
		} else if r.Status == "warn" {
			icon = "⚠"
			warnCount++
		} else {
			passCount++
		}
		fmt.Fprintf(stdout, "  %s %s: %s\n", icon, r.Name, r.Message)
	}

	fmt.Fprintf(stdout, "\nResults: %d passed, %d failed, %d warnings\n", passCount, failCount, warnCount)

	if failCount > 0 {
		fmt.Fprintf(stdout, "\nSome checks failed.\n")
		return 1
	}

	fmt.Fprintf(stdout, "\nAll health checks passed!\n")
	return 0
}
