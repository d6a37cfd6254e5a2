package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-bizsuite/internal/common/api"
	"go-bizsuite/internal/cache"
	"go-bizsuite/internal/config"
	"go-bizsuite/internal/database"
	"go-bizsuite/internal/features/audit"
	cron_feature "go-bizsuite/internal/features/cron"
	"go-bizsuite/internal/features/organization"
	"go-bizsuite/internal/features/permission"
	"go-bizsuite/internal/features/system"
	"go-bizsuite/internal/features/task"
	"go-bizsuite/internal/logger"
	"go-bizsuite/internal/metrics"
	"go-bizsuite/internal/middleware"
	"go-bizsuite/pkg/utils"

	_ "go-bizsuite/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())
	app.Use(middleware.RequestLogger(log))

	return app
}

// NewLayerCache picks the permission snapshot cache from CACHE_DRIVER
func NewLayerCache(cfg *config.Config, rdb *database.RedisClient, log *zap.Logger) cache.LayerCache {
	if cfg.CacheDriver == config.CacheDriverRedis && rdb.Client != nil {
		return cache.NewRedisCache(rdb.Client, cfg.PermissionCacheTTL, log)
	}
	return cache.NewMemoryCache(cfg.PermissionCacheTTL)
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every collected route.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(
	lc fx.Lifecycle,
	permissionRepo permission.PermissionRepository,
	orgRepo organization.OrganizationRepository,
	taskRepo task.TaskRepository,
	log *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := permissionRepo.EnsureIndexes(ctx); err != nil {
					log.Error("Failed to ensure permission indexes", zap.Error(err))
				}
				if err := orgRepo.EnsureIndexes(ctx); err != nil {
					log.Error("Failed to ensure organization indexes", zap.Error(err))
				}
				if err := taskRepo.EnsureIndexes(ctx); err != nil {
					log.Error("Failed to ensure task indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// StartScheduler runs registered cron jobs for the lifetime of the app
func StartScheduler(lc fx.Lifecycle, scheduler cron_feature.CronService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

// @title           BizSuite API
// @version         1.0
// @description     Layered permissions, hierarchy guard and task visibility for a multi-tenant business suite.

// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			database.NewPostgres,
			database.NewRedis,
			metrics.NewMetrics,
			NewLayerCache,
			NewFiberServer,
			system.NewHub,

			// Adapters between features
			func(repo organization.OrganizationRepository) permission.PlanLookup { return repo },
			func(hub *system.Hub) permission.EventPublisher { return hub },
			func(hub *system.Hub) organization.EventPublisher { return hub },
			func(svc permission.PermissionService) middleware.PermissionChecker { return svc },
			func(svc permission.PermissionService) organization.Invalidator { return svc },
			func(svc permission.PermissionService) task.PermissionChecker { return svc },
			func(svc permission.PermissionService) system.EffectiveResolver { return svc },

			// Audit
			audit.NewAuditRepository,
			audit.NewAuditService,
			audit.NewAuditController,

			// Cron
			cron_feature.NewCronRepository,
			cron_feature.NewCronService,
			cron_feature.NewCronController,

			// Permission
			permission.NewPermissionRepository,
			permission.NewPermissionService,
			permission.NewPermissionController,

			// Organization
			organization.NewOrganizationRepository,
			organization.NewOrganizationService,
			organization.NewOrganizationController,

			// Task
			task.NewTaskRepository,
			task.NewTaskService,
			task.NewTaskController,

			// System
			system.NewWebSocketController,
			system.NewDebugController,

			// Routes
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewWebSocketApi),
			AsRoute(system.NewDebugApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(cron_feature.NewCronApi),
			AsRoute(permission.NewPermissionApi),
			AsRoute(organization.NewOrganizationApi),
			AsRoute(task.NewTaskApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			RegisterAllRoutesWithAnnotation,
			StartServer,
			permission.RegisterRefreshJob,
			StartScheduler,
			InitializeIndexes,
		),
	)

	app.Run()
}
