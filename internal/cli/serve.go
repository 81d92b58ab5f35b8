package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/guestbook/internal/config"
	"github.com/sakif/guestbook/internal/repository/sqldb"
	"github.com/sakif/guestbook/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server and block until SIGINT or SIGTERM.

In-flight requests get 30 seconds to finish on shutdown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	cfg, logger, err := loadConfig(opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if err := prepareStorage(cfg.Database, logger); err != nil {
		return err
	}

	connector := sqldb.NewConnector(cfg.Database, logger)
	srv, err := server.New(cfg, connector, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	return srv.Start(cmd.Context())
}

// prepareStorage creates the directory holding a SQLite file, like `mkdir -p`.
// Network backends need nothing.
func prepareStorage(db config.Database, logger *slog.Logger) error {
	if db.Driver != config.DriverSQLite {
		return nil
	}

	dir := filepath.Dir(db.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	logger.Debug("database directory ready", slog.String("dir", dir))
	return nil
}
