package cli

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yakoovad/member-search/internal/db"
	"go.uber.org/zap"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(opts, func(m *db.Migrator, l *zap.Logger) error {
				if err := m.Up(cmd.Context()); err != nil {
					return err
				}
				l.Info("migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [version]",
		Short: "Roll back one migration, or down to version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var version int64
			if len(args) == 1 {
				v, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return errors.Wrap(err, "parse version")
				}
				version = v
			}

			return withMigrator(opts, func(m *db.Migrator, l *zap.Logger) error {
				if err := m.Down(cmd.Context(), version); err != nil {
					return err
				}
				l.Info("migrations rolled back", zap.Int64("version", version))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(opts, func(m *db.Migrator, _ *zap.Logger) error {
				return m.Status(cmd.Context())
			})
		},
	})

	return cmd
}

func withMigrator(opts *RootOptions, fn func(*db.Migrator, *zap.Logger) error) error {
	cfg, l, err := setup(opts)
	if err != nil {
		return err
	}
	defer l.Sync()

	return fn(db.NewMigrator(cfg.Postgres.DSN()), l)
}
