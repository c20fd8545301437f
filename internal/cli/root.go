package cli

import (
	"github.com/spf13/cobra"
	"github.com/yakoovad/member-search/internal/config"
	"github.com/yakoovad/member-search/pkg/logger"
	"go.uber.org/zap"
)

// Version is set at build time.
var Version = "dev"

type RootOptions struct {
	LogLevel string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "member-search",
		Short:         "Member and team search service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "overrides LOGGING_LEVEL")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// setup loads the configuration and builds the logger every command shares.
func setup(opts *RootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	l, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}
