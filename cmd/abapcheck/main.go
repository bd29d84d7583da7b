package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"abapcheck/internal/cli"
	"abapcheck/internal/config"
	"abapcheck/internal/logging"
	"abapcheck/internal/rfc"
	"abapcheck/internal/secrets"
	"abapcheck/internal/server"
	"abapcheck/internal/tooling"
)

const serverName = "abapcheck"

// buildMeta holds version and build metadata (injectable via ldflags).
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(version, goos, goarch string) buildMeta {
	if version == "" {
		version = "dev"
	}
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return buildMeta{Version: version, GoOS: goos, GoArch: goarch}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("abapcheck %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

func newRootCommand(bm buildMeta) *cobra.Command {
	root := &cobra.Command{
		Use:   "abapcheck",
		Short: "ABAP syntax check MCP server",
		Long:  "abapcheck serves the check_abap_syntax tool over MCP stdio, forwarding ABAP source to a SAP system via RFC.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			cfgPath, _ := cmd.Flags().GetString("config")
			logLevel, _ := cmd.Flags().GetString("log-level")
			return serveFn(bm, cfgPath, logLevel)
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")
	root.PersistentFlags().String("config", "", "path to config file (JSON or YAML); defaults to SAP_* environment variables")
	root.PersistentFlags().String("log-level", "", "override the configured log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tool over stdio (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			logLevel, _ := cmd.Flags().GetString("log-level")
			return serveFn(bm, cfgPath, logLevel)
		},
	}
	root.AddCommand(serveCmd)

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "abapcheck.json"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("refusing to overwrite existing file %s", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	root.AddCommand(initCmd)

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and SAP connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			fix, _ := cmd.Flags().GetBool("fix")
			connect, _ := cmd.Flags().GetBool("connect")
			cfgPath, _ := cmd.Flags().GetString("config")
			code := cli.RunDoctor(cli.DoctorOptions{
				ConfigPath: cfgPath,
				Fix:        fix,
				Deep:       connect,
			}, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if code != 0 {
				return exitCodeErr(code)
			}
			return nil
		},
	}
	doctorCmd.Flags().Bool("fix", false, "write default config if missing")
	doctorCmd.Flags().Bool("connect", true, "open and close an RFC connection as part of the checks")
	root.AddCommand(doctorCmd)

	secretsCmd := &cobra.Command{Use: "secrets", Short: "Store or retrieve the SAP password (encrypted, not in config)"}
	secretsSetCmd := &cobra.Command{Use: "set", Short: "Store a secret by name", RunE: runSecretsSet}
	secretsSetCmd.Args = cobra.ExactArgs(2)
	secretsGetCmd := &cobra.Command{Use: "get", Short: "Retrieve a secret by name", RunE: runSecretsGet}
	secretsGetCmd.Args = cobra.ExactArgs(1)
	secretsDeleteCmd := &cobra.Command{Use: "delete", Short: "Remove a secret by name", RunE: runSecretsDelete}
	secretsDeleteCmd.Args = cobra.ExactArgs(1)
	secretsCmd.AddCommand(secretsSetCmd, secretsGetCmd, secretsDeleteCmd)
	root.AddCommand(secretsCmd)

	return root
}

func runSecretsSet(cmd *cobra.Command, args []string) error {
	s, err := secretsStore()
	if err != nil {
		return err
	}
	if err := s.Set(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func runSecretsGet(cmd *cobra.Command, args []string) error {
	s, err := secretsStore()
	if err != nil {
		return err
	}
	value, err := s.Get(args[0])
	if err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			return fmt.Errorf("secret %q not found", args[0])
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runSecretsDelete(cmd *cobra.Command, args []string) error {
	s, err := secretsStore()
	if err != nil {
		return err
	}
	return s.Delete(args[0])
}

// resolveConfig loads the configuration from the given file, or from the
// environment when no path is set. Before loading, the stored SAP password is
// surfaced through SAP_PASSWORD so the config overlay picks it up when neither
// the file nor the environment carries one.
func resolveConfig(cfgPath string) (*config.Config, error) {
	applyStoredPassword()
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	return config.FromEnv()
}

// applyStoredPassword sets SAP_PASSWORD from the secrets store when the
// variable is unset. Errors are ignored: a missing store just means the
// password must come from config or environment.
func applyStoredPassword() {
	if os.Getenv("SAP_PASSWORD") != "" {
		return
	}
	s, err := secretsStore()
	if err != nil {
		return
	}
	value, err := s.Get(secrets.KeySAPPassword)
	if err != nil || value == "" {
		return
	}
	os.Setenv("SAP_PASSWORD", value)
}

// runServe is the daemon path: resolve config, set up logging, connect the
// RFC client, and serve MCP over stdio until a shutdown signal arrives.
func runServe(bm buildMeta, cfgPath, logLevel string) error {
	cfg, err := resolveConfig(cfgPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	logger.Info("starting", "version", bm.Version, "destination", cfg.SAP.Destination())

	client := rfc.NewClient(cfg.SAP, rfc.WithLogger(logger))

	registry := tooling.NewRegistry()
	tool := tooling.NewSyntaxTool(client,
		tooling.WithMaxLines(cfg.Check.MaxCodeLines),
		tooling.WithLogger(logger),
	)
	if err := registry.Register(tool); err != nil {
		return err
	}

	srv := server.New(serverName, bm.Version, client, registry, logger)

	ctx, stop := notifyContext()
	defer stop()
	return srv.Run(ctx)
}

// exitCodeErr carries an exit code for the process. When returned from a
// command, runApp exits with that code without printing the error again.
type exitCodeErr int

func (e exitCodeErr) Error() string { return fmt.Sprintf("exit %d", int(e)) }
func (e exitCodeErr) ExitCode() int { return int(e) }

// runApp runs the root command with the given args and returns the exit code.
func runApp(args []string) int {
	bm := newBuildMeta(version, "", "")
	root := newRootCommand(bm)
	root.SetArgs(args[1:])
	root.SilenceUsage = true
	if err := root.Execute(); err != nil {
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			return ec.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// version is set at build time via ldflags, e.g.:
//
//	go build -ldflags "-X main.version=1.0.0" -o abapcheck ./cmd/abapcheck
var version string

// Function variables for dependency injection in tests.
var (
	secretsStore  = secrets.DefaultStore
	serveFn       = runServe
	notifyContext = func() (context.Context, context.CancelFunc) {
		return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	}
)
