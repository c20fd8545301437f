package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yakoovad/member-search/internal/api"
	"github.com/yakoovad/member-search/internal/auth"
	"github.com/yakoovad/member-search/internal/db"
	"github.com/yakoovad/member-search/internal/repository"
	"github.com/yakoovad/member-search/internal/service"
	"go.uber.org/zap"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on startup")

	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, skipMigrate bool) error {
	cfg, l, err := setup(opts)
	if err != nil {
		return err
	}
	defer l.Sync()

	l.Info("starting application", zap.String("version", Version))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth.SetSecret(cfg.Auth.TokenSecret)

	if !skipMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, cfg.Postgres.MigrateTimeout)
		err = db.NewMigrator(cfg.Postgres.DSN()).Up(migrateCtx)
		cancel()
		if err != nil {
			return errors.Wrap(err, "apply migrations")
		}
		l.Info("migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	l.Info("database connection established")

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	transactor := db.NewPgxTransactor(pool)

	teamRepo := repository.NewPgxTeamRepository(pool)
	memberRepo := repository.NewPgxMemberRepository(pool)
	queryRepo := repository.NewPgxMemberQueryRepository(pool)

	team := service.NewTeamService(transactor).WithTeamRepo(teamRepo).WithMemberRepo(memberRepo)
	member := service.NewMemberService(transactor).
		WithMemberRepo(memberRepo).
		WithTeamRepo(teamRepo).
		WithQueryRepo(queryRepo).
		WithMaxPageSize(cfg.Search.MaxPageSize)
	report := service.NewReportService(transactor).WithQueryRepo(queryRepo)

	e := echo.New()
	e.HideBanner = true

	handler := api.NewHandler(l).
		WithHealthChecker(api.MustNewHealthChecker(Version,
			api.PostgresCheck(pool),
			api.SchemaCheck(sqlDB, db.SchemaVersion),
		)).
		WithMetrics(api.NewMetrics()).
		WithTeamService(team).
		WithMemberService(member).
		WithReportService(report).
		WithDefaultPageSize(cfg.Search.DefaultPageSize)

	handler.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		l.Info("server starting", zap.String("addr", cfg.ServerAddr()))
		if err := e.Start(cfg.ServerAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return errors.Wrap(err, "start server")
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown server")
	}
	return nil
}
