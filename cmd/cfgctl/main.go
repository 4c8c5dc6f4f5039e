package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cfgctl/internal/config"
	"cfgctl/pkg/client"
)

var outputJSON bool

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cfgctl",
		Short:         "Inspect and verify API client configuration",
		Long:          "cfgctl loads the API client configuration from environment variables, validates it and can test it against the remote API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(varsCmd())
	rootCmd.AddCommand(pingCmd())

	return rootCmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				return writeJSON(out, map[string]bool{"valid": true})
			}
			fmt.Fprintln(out, "configuration OK")
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg = cfg.Redacted()

			out := cmd.OutOrStdout()
			if outputJSON {
				return writeJSON(out, cfg)
			}

			fmt.Fprintf(out, "%-11s %s\n", config.EnvAPIKey, cfg.APIKey)
			fmt.Fprintf(out, "%-11s %s\n", config.EnvBaseURL, cfg.BaseURL)
			fmt.Fprintf(out, "%-11s %d\n", config.EnvTimeoutMS, cfg.TimeoutMS)
			fmt.Fprintf(out, "%-11s %s\n", config.EnvLogLevel, cfg.LogLevel)
			fmt.Fprintf(out, "%-11s %t\n", config.EnvDebug, cfg.Debug)
			return nil
		},
	}
}

func varsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vars",
		Short: "List the supported environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.WriteUsage(cmd.OutOrStdout())
		},
	}
}

func pingCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Send an authenticated request to the configured API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			c, err := client.New(cfg)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}

			if _, err := c.Get(cmd.Context(), path); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				return writeJSON(out, map[string]string{"url": c.BaseURL(), "status": "ok"})
			}
			fmt.Fprintf(out, "%s reachable\n", c.BaseURL())
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "/", "Request path relative to BASE_URL")

	return cmd
}

// loadConfig loads and validates the configuration, then sets up logging
// from it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("validate config: %w", err)
	}

	setupLogging(os.Stderr, cfg)

	log.Debug().
		Str("base_url", cfg.BaseURL).
		Uint64("timeout_ms", cfg.TimeoutMS).
		Str("log_level", cfg.LogLevel).
		Bool("debug", cfg.Debug).
		Msg("configuration loaded")

	return cfg, nil
}

func setupLogging(w io.Writer, cfg config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Pretty logging for development
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})

	zerolog.SetGlobalLevel(logLevel(cfg))
}

func logLevel(cfg config.Config) zerolog.Level {
	if cfg.Debug {
		return zerolog.DebugLevel
	}

	switch cfg.Level() {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
