package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/internal/config"
	"go-bizsuite/internal/database"
	"go-bizsuite/internal/features/organization"
	"go-bizsuite/internal/features/permission"
	"go-bizsuite/internal/logger"
	"go-bizsuite/pkg/access"
	"go-bizsuite/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const dataPath = "cmd/seed/data/permissions.json"

// seedData is the layout of data/permissions.json
type seedData struct {
	Global        map[access.Role][]string                   `json:"global"`
	Plans         map[string]map[access.Role]map[string]bool `json:"plans"`
	Organizations []struct {
		Name string             `json:"name"`
		Plan common_models.Plan `json:"plan"`
	} `json:"organizations"`
}

// demoUsers get one dev token each for the first seeded organization
var demoUsers = []struct {
	ID         string
	Role       access.Role
	Department string
}{
	{"root", access.RoleOwner, ""},
	{"demo-admin", access.RoleAdmin, ""},
	{"demo-manager", access.RoleManager, "sales"},
	{"demo-staff", access.RoleStaff, "sales"},
	{"demo-employee", access.RoleEmployee, "support"},
}

func readSeed(path string) (*seedData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data seedData
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func seedGlobal(ctx context.Context, repo permission.PermissionRepository, data *seedData, log *zap.Logger) int {
	count := 0
	for role, keys := range data.Global {
		if !role.IsValid() {
			log.Warn("Unknown role in global defaults, skipping", zap.String("role", string(role)))
			continue
		}
		for _, raw := range keys {
			key, err := access.ParseKey(raw)
			if err != nil {
				log.Warn("Invalid permission key, skipping", zap.String("key", raw), zap.Error(err))
				continue
			}
			rec := permission.PermissionRecord{
				Tier:      permission.TierGlobal,
				Role:      role,
				Module:    key.Module,
				Action:    key.Action,
				Enabled:   true,
				UpdatedBy: "seed",
			}
			if _, err := repo.Upsert(ctx, rec); err != nil {
				log.Error("Failed to upsert global default", zap.String("role", string(role)), zap.String("key", raw), zap.Error(err))
				continue
			}
			count++
		}
	}
	return count
}

func seedPlans(ctx context.Context, repo permission.PermissionRepository, data *seedData, log *zap.Logger) int {
	count := 0
	for plan, roles := range data.Plans {
		if !common_models.Plan(plan).IsValid() {
			log.Warn("Unknown plan in presets, skipping", zap.String("plan", plan))
			continue
		}
		for role, keys := range roles {
			for raw, enabled := range keys {
				key, err := access.ParseKey(raw)
				if err != nil || !role.IsValid() {
					log.Warn("Invalid plan preset entry, skipping", zap.String("plan", plan), zap.String("role", string(role)), zap.String("key", raw))
					continue
				}
				rec := permission.PermissionRecord{
					Tier:      permission.TierPlan,
					Plan:      plan,
					Role:      role,
					Module:    key.Module,
					Action:    key.Action,
					Enabled:   enabled,
					UpdatedBy: "seed",
				}
				if _, err := repo.Upsert(ctx, rec); err != nil {
					log.Error("Failed to upsert plan preset", zap.String("plan", plan), zap.String("key", raw), zap.Error(err))
					continue
				}
				count++
			}
		}
	}
	return count
}

func seedOrganizations(ctx context.Context, repo organization.OrganizationRepository, data *seedData, log *zap.Logger) []*common_models.Organization {
	var orgs []*common_models.Organization
	for _, o := range data.Organizations {
		slug := utils.Slugify(o.Name)
		existing, err := repo.FindBySlug(ctx, slug)
		if err == nil {
			log.Info("Organization exists, skipping", zap.String("organization", o.Name))
			orgs = append(orgs, existing)
			continue
		}
		if !errors.Is(err, common_models.ErrNotFound) {
			log.Error("Failed to look up organization", zap.String("organization", o.Name), zap.Error(err))
			continue
		}

		plan := o.Plan
		if !plan.IsValid() {
			plan = common_models.PlanFree
		}
		org := &common_models.Organization{Name: o.Name, Slug: slug, Plan: plan, OwnerID: "root"}
		if err := repo.Create(ctx, org); err != nil {
			log.Error("Failed to create organization", zap.String("organization", o.Name), zap.Error(err))
			continue
		}
		log.Info("Organization created", zap.String("organization", o.Name), zap.String("plan", string(plan)))
		orgs = append(orgs, org)
	}
	return orgs
}

// mintDevTokens logs one bearer token per demo user. Never run against production.
func mintDevTokens(cfg *config.Config, org *common_models.Organization, log *zap.Logger) {
	utils.SetSecret(cfg.JWTSecret)
	for _, u := range demoUsers {
		token, err := utils.GenerateToken(utils.TokenSubject{
			UserID:     u.ID,
			OrgID:      org.ID.Hex(),
			Role:       string(u.Role),
			Department: u.Department,
			SuperAdmin: cfg.IsSuperAdmin(u.ID),
		}, 24*time.Hour)
		if err != nil {
			log.Error("Failed to mint token", zap.String("user", u.ID), zap.Error(err))
			continue
		}
		log.Info("Dev token", zap.String("user", u.ID), zap.String("role", string(u.Role)), zap.String("token", token))
	}
}

func Seed(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	permissionRepo permission.PermissionRepository,
	orgRepo organization.OrganizationRepository,
	log *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer shutdowner.Shutdown()

				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()

				log.Info("Starting permission seeding...")

				data, err := readSeed(dataPath)
				if err != nil {
					log.Error("Failed to read seed data", zap.String("path", dataPath), zap.Error(err))
					return
				}

				if err := permissionRepo.EnsureIndexes(ctx); err != nil {
					log.Error("Failed to ensure permission indexes", zap.Error(err))
					return
				}
				if err := orgRepo.EnsureIndexes(ctx); err != nil {
					log.Warn("Failed to ensure organization indexes", zap.Error(err))
				}

				log.Info("Global defaults synced", zap.Int("count", seedGlobal(ctx, permissionRepo, data, log)))
				log.Info("Plan presets synced", zap.Int("count", seedPlans(ctx, permissionRepo, data, log)))

				orgs := seedOrganizations(ctx, orgRepo, data, log)
				if len(orgs) > 0 && !cfg.IsProduction() {
					mintDevTokens(cfg, orgs[0], log)
				}

				log.Info("Seeding complete")
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			database.NewPostgres,
			permission.NewPermissionRepository,
			organization.NewOrganizationRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
