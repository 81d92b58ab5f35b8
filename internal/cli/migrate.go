package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/guestbook/internal/repository/sqldb"
	"github.com/sakif/guestbook/internal/service"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the entries table if it does not exist",
		Long: `Connect once, create the entries table if it is missing, and exit.

Safe to run repeatedly; existing entries are never touched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	cfg, logger, err := loadConfig(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if err := prepareStorage(cfg.Database, logger); err != nil {
		return err
	}

	svc := service.NewGuestbookService(sqldb.NewConnector(cfg.Database, logger), logger)
	sess, err := svc.Open(cmd.Context())
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := sess.Close(); err != nil {
		return fmt.Errorf("migrate: closing connection: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.Database.Driver)
	return nil
}
