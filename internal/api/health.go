package api

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/yakoovad/member-search/internal/db"
)

const healthCheckTimeout = 2 * time.Second

type HealthChecker interface {
	HealthCheck() echo.HandlerFunc
}

type healthChecker struct {
	health *health.Health
}

func MustNewHealthChecker(version string, checks ...health.Config) HealthChecker {
	h, err := health.New(health.WithComponent(health.Component{Name: "member-search", Version: version}))
	if err != nil {
		log.Fatal("failed to create health checker:", err)
	}

	for _, check := range checks {
		if err := h.Register(check); err != nil {
			log.Fatal("failed to register health check:", err)
		}
	}

	return &healthChecker{
		health: h,
	}
}

func (h *healthChecker) HealthCheck() echo.HandlerFunc {
	return echo.WrapHandler(h.health.Handler())
}

func PostgresCheck(pool *pgxpool.Pool) health.Config {
	return health.Config{
		Name:    "postgres",
		Timeout: healthCheckTimeout,
		Check: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	}
}

// SchemaCheck reports unhealthy until the migrations up to want are applied.
func SchemaCheck(conn *sql.DB, want int64) health.Config {
	return health.Config{
		Name:    "schema",
		Timeout: healthCheckTimeout,
		Check: func(ctx context.Context) error {
			return db.CheckSchemaVersion(ctx, conn, want)
		},
	}
}
