// Package cli holds the guestbook's command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/guestbook/internal/config"
)

// ConfigEnv names the variable consulted when --config is not given.
const ConfigEnv = "GUESTBOOK_CONFIG"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string // overrides the configured level when set
}

// NewRootCommand creates the root command. Running it without a subcommand
// serves the guestbook.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "guestbook",
		Short: "Single-page guestbook",
		Long: `A single-page guestbook: visitors leave a name and a message, and every
entry is listed newest first.

Settings come from built-in defaults, an optional YAML file and the
environment (PORT, DB_DRIVER, DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASS,
DB_PATH, DB_CONNECT_TIMEOUT, LOG_LEVEL), in that order.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file (default $"+ConfigEnv+")")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// Execute runs the command tree and reports a failure on stderr.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

// loadConfig resolves settings for a command and builds its logger.
func loadConfig(opts *RootOptions, out io.Writer) (config.Config, *slog.Logger, error) {
	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}
