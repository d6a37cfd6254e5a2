package system

import (
	"context"
	"time"

	"go-bizsuite/internal/common/api"
	"go-bizsuite/internal/database"
	"go-bizsuite/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type dependencyCheck func(ctx context.Context) error

type HealthApi struct {
	checks  map[string]dependencyCheck
	metrics *metrics.Metrics
}

func NewHealthApi(mongodb *database.MongodbDB, pg *database.PostgresDB, rdb *database.RedisClient, m *metrics.Metrics) api.Route {
	checks := map[string]dependencyCheck{}
	if mongodb != nil && mongodb.DB != nil {
		checks["mongo"] = func(ctx context.Context) error { return mongodb.DB.Client().Ping(ctx, nil) }
	}
	if pg != nil && pg.DB != nil {
		checks["postgres"] = pg.DB.PingContext
	}
	if rdb != nil && rdb.Client != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Client.Ping(ctx).Err() }
	}
	return &HealthApi{checks: checks, metrics: m}
}

// Setup registers health check and metrics routes
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", h.HealthCheck)
	app.Get("/health/ready", h.Readiness)
	if h.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Check if the server is up
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Router       /health [get]
func (h *HealthApi) HealthCheck(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness godoc
// @Summary      Readiness
// @Description  Pings every configured store
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health/ready [get]
func (h *HealthApi) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	result := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			result[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}
	return c.Status(status).JSON(result)
}
