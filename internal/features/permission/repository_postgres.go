package permission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/internal/config"
	"go-bizsuite/internal/database"
	"go-bizsuite/pkg/access"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS permission_records (
	id         UUID PRIMARY KEY,
	tier       TEXT NOT NULL,
	org_id     TEXT NOT NULL DEFAULT '',
	plan       TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL,
	module     TEXT NOT NULL,
	action     TEXT NOT NULL,
	enabled    BOOLEAN NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	updated_by TEXT NOT NULL DEFAULT '',
	UNIQUE (tier, org_id, plan, role, module, action)
);
CREATE INDEX IF NOT EXISTS permission_records_org_role ON permission_records (org_id, role);
CREATE TABLE IF NOT EXISTS permission_settings (
	org_id                TEXT PRIMARY KEY,
	use_global_defaults   BOOLEAN NOT NULL DEFAULT FALSE,
	override_plan_presets BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at            TIMESTAMPTZ NOT NULL,
	updated_by            TEXT NOT NULL DEFAULT ''
);`

const recordColumns = `id, tier, org_id, plan, role, module, action, enabled, updated_at, updated_by`

// PostgresPermissionRepository keeps the layers in PostgreSQL, where row-level
// security policies can be attached to permission_records.
type PostgresPermissionRepository struct {
	db *sql.DB
}

func NewPostgresPermissionRepository(pg *database.PostgresDB) *PostgresPermissionRepository {
	return &PostgresPermissionRepository{db: pg.DB}
}

// NewPermissionRepository picks the store named by STORE_DRIVER
func NewPermissionRepository(cfg *config.Config, mongodb *database.MongodbDB, pg *database.PostgresDB) PermissionRepository {
	if cfg.StoreDriver == config.StoreDriverPostgres && pg.DB != nil {
		return NewPostgresPermissionRepository(pg)
	}
	return NewMongoPermissionRepository(mongodb)
}

func (r *PostgresPermissionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, postgresSchema)
	return err
}

func (r *PostgresPermissionRepository) LoadLayers(ctx context.Context, orgID, plan string, role access.Role) (access.Layers, error) {
	query := `SELECT ` + recordColumns + ` FROM permission_records
		WHERE role = $3 AND (tier = 'global' OR (tier = 'plan' AND plan = $2) OR (tier = 'organization' AND org_id = $1))`
	records, err := r.query(ctx, query, orgID, plan, string(role))
	if err != nil {
		return access.Layers{}, err
	}
	return BuildLayers(records), nil
}

func (r *PostgresPermissionRepository) ListLayers(ctx context.Context, orgID, plan string) (access.Layers, error) {
	query := `SELECT ` + recordColumns + ` FROM permission_records
		WHERE tier = 'global' OR (tier = 'plan' AND plan = $2) OR (tier = 'organization' AND org_id = $1)`
	records, err := r.query(ctx, query, orgID, plan)
	if err != nil {
		return access.Layers{}, err
	}
	return BuildLayers(records), nil
}

func (r *PostgresPermissionRepository) FindByID(ctx context.Context, id string) (*PermissionRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("permission %s: %w", id, common_models.ErrNotFound)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM permission_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("permission %s: %w", id, common_models.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

func (r *PostgresPermissionRepository) SetEnabled(ctx context.Context, id string, enabled bool, actor string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("permission %s: %w", id, common_models.ErrNotFound)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE permission_records SET enabled = $2, updated_at = $3, updated_by = $4 WHERE id = $1`,
		id, enabled, time.Now(), actor)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("permission %s: %w", id, common_models.ErrNotFound)
	}
	return nil
}

func (r *PostgresPermissionRepository) Upsert(ctx context.Context, rec PermissionRecord) (*PermissionRecord, error) {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO permission_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tier, org_id, plan, role, module, action)
		DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
		RETURNING `+recordColumns,
		uuid.NewString(), string(rec.Tier), rec.OrgID, rec.Plan, string(rec.Role),
		rec.Module, rec.Action, rec.Enabled, rec.UpdatedAt, rec.UpdatedBy)
	return scanRecord(row)
}

func (r *PostgresPermissionRepository) GetSettings(ctx context.Context, orgID string) (ResolutionSettings, error) {
	s := ResolutionSettings{OrgID: orgID}
	err := r.db.QueryRowContext(ctx,
		`SELECT use_global_defaults, override_plan_presets, updated_at, updated_by FROM permission_settings WHERE org_id = $1`,
		orgID).Scan(&s.UseGlobalDefaults, &s.OverridePlanPresets, &s.UpdatedAt, &s.UpdatedBy)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ResolutionSettings{}, err
	}
	return s, nil
}

func (r *PostgresPermissionRepository) SaveSettings(ctx context.Context, s ResolutionSettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO permission_settings (org_id, use_global_defaults, override_plan_presets, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (org_id) DO UPDATE SET
			use_global_defaults = EXCLUDED.use_global_defaults,
			override_plan_presets = EXCLUDED.override_plan_presets,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`,
		s.OrgID, s.UseGlobalDefaults, s.OverridePlanPresets, s.UpdatedAt, s.UpdatedBy)
	return err
}

func (r *PostgresPermissionRepository) ListRecords(ctx context.Context, f RecordFilter) ([]PermissionRecord, error) {
	where, args := recordWhere(f)
	query := `SELECT ` + recordColumns + ` FROM permission_records` + where + ` ORDER BY module, action, role`
	return r.query(ctx, query, args...)
}

// recordWhere builds a parameterized WHERE clause; role filters accept a set
// through pq.Array so callers can pass several roles later.
func recordWhere(f RecordFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Tier != "" {
		add("tier = $%d", string(f.Tier))
	}
	if f.OrgID != "" {
		add("org_id = $%d", f.OrgID)
	}
	if f.Plan != "" {
		add("plan = $%d", f.Plan)
	}
	if f.Role != "" {
		add("role = ANY($%d)", pq.Array([]string{string(f.Role)}))
	}
	if f.Module != "" {
		add("module = $%d", f.Module)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*PermissionRecord, error) {
	var rec PermissionRecord
	var tier, role string
	err := row.Scan(&rec.ID, &tier, &rec.OrgID, &rec.Plan, &role, &rec.Module, &rec.Action,
		&rec.Enabled, &rec.UpdatedAt, &rec.UpdatedBy)
	if err != nil {
		return nil, err
	}
	rec.Tier = Tier(tier)
	rec.Role = access.Role(role)
	return &rec, nil
}

func (r *PostgresPermissionRepository) query(ctx context.Context, query string, args ...any) ([]PermissionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PermissionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
