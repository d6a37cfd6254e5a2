package permission

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/internal/database"
	"go-bizsuite/pkg/access"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PermissionRepository interface {
	// LoadLayers returns the layers that apply to one role of an organization on a plan
	LoadLayers(ctx context.Context, orgID, plan string, role access.Role) (access.Layers, error)
	// ListLayers returns every role's layers for an organization on a plan
	ListLayers(ctx context.Context, orgID, plan string) (access.Layers, error)
	FindByID(ctx context.Context, id string) (*PermissionRecord, error)
	SetEnabled(ctx context.Context, id string, enabled bool, actor string) error
	// Upsert writes a record by its natural key (tier, org, plan, role, module, action)
	Upsert(ctx context.Context, rec PermissionRecord) (*PermissionRecord, error)
	GetSettings(ctx context.Context, orgID string) (ResolutionSettings, error)
	SaveSettings(ctx context.Context, settings ResolutionSettings) error
	ListRecords(ctx context.Context, filter RecordFilter) ([]PermissionRecord, error)
	EnsureIndexes(ctx context.Context) error
}

type PermissionRepositoryImpl struct {
	collection *mongo.Collection
	settings   *mongo.Collection
}

func NewMongoPermissionRepository(mongodb *database.MongodbDB) *PermissionRepositoryImpl {
	return &PermissionRepositoryImpl{
		collection: mongodb.DB.Collection("permission_records"),
		settings:   mongodb.DB.Collection("permission_settings"),
	}
}

func (r *PermissionRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tier", Value: 1}, {Key: "org_id", Value: 1}, {Key: "plan", Value: 1},
				{Key: "role", Value: 1}, {Key: "module", Value: 1}, {Key: "action", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("natural_key"),
		},
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "role", Value: 1}}},
	})
	return err
}

func layerFilter(orgID, plan string) bson.M {
	or := bson.A{bson.M{"tier": TierGlobal}}
	if plan != "" {
		or = append(or, bson.M{"tier": TierPlan, "plan": plan})
	}
	if orgID != "" {
		or = append(or, bson.M{"tier": TierOrganization, "org_id": orgID})
	}
	return bson.M{"$or": or}
}

func (r *PermissionRepositoryImpl) LoadLayers(ctx context.Context, orgID, plan string, role access.Role) (access.Layers, error) {
	filter := layerFilter(orgID, plan)
	filter["role"] = role
	return r.findLayers(ctx, filter)
}

func (r *PermissionRepositoryImpl) ListLayers(ctx context.Context, orgID, plan string) (access.Layers, error) {
	return r.findLayers(ctx, layerFilter(orgID, plan))
}

func (r *PermissionRepositoryImpl) findLayers(ctx context.Context, filter bson.M) (access.Layers, error) {
	records, err := r.find(ctx, filter)
	if err != nil {
		return access.Layers{}, err
	}
	return BuildLayers(records), nil
}

func (r *PermissionRepositoryImpl) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]PermissionRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []PermissionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PermissionRepositoryImpl) FindByID(ctx context.Context, id string) (*PermissionRecord, error) {
	var rec PermissionRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("permission %s: %w", id, common_models.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PermissionRepositoryImpl) SetEnabled(ctx context.Context, id string, enabled bool, actor string) error {
	update := bson.M{
		"$set": bson.M{
			"enabled":    enabled,
			"updated_at": time.Now(),
			"updated_by": actor,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("permission %s: %w", id, common_models.ErrNotFound)
	}
	return nil
}

func (r *PermissionRepositoryImpl) Upsert(ctx context.Context, rec PermissionRecord) (*PermissionRecord, error) {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	filter := bson.M{
		"tier":   rec.Tier,
		"org_id": rec.OrgID,
		"plan":   rec.Plan,
		"role":   rec.Role,
		"module": rec.Module,
		"action": rec.Action,
	}
	update := bson.M{
		"$set": bson.M{
			"enabled":    rec.Enabled,
			"updated_at": rec.UpdatedAt,
			"updated_by": rec.UpdatedBy,
		},
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored PermissionRecord
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetSettings returns zero settings for organizations that never saved any
func (r *PermissionRepositoryImpl) GetSettings(ctx context.Context, orgID string) (ResolutionSettings, error) {
	var s ResolutionSettings
	err := r.settings.FindOne(ctx, bson.M{"_id": orgID}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ResolutionSettings{OrgID: orgID}, nil
		}
		return ResolutionSettings{}, err
	}
	return s, nil
}

func (r *PermissionRepositoryImpl) SaveSettings(ctx context.Context, s ResolutionSettings) error {
	_, err := r.settings.ReplaceOne(ctx, bson.M{"_id": s.OrgID}, s, options.Replace().SetUpsert(true))
	return err
}

func (r *PermissionRepositoryImpl) ListRecords(ctx context.Context, f RecordFilter) ([]PermissionRecord, error) {
	query := bson.M{}
	if f.Tier != "" {
		query["tier"] = f.Tier
	}
	if f.OrgID != "" {
		query["org_id"] = f.OrgID
	}
	if f.Plan != "" {
		query["plan"] = f.Plan
	}
	if f.Role != "" {
		query["role"] = f.Role
	}
	if f.Module != "" {
		query["module"] = f.Module
	}
	opts := options.Find().SetSort(bson.D{{Key: "module", Value: 1}, {Key: "action", Value: 1}, {Key: "role", Value: 1}})
	return r.find(ctx, query, opts)
}
