package organization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-bizsuite/internal/common/models"
	"go-bizsuite/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id string) (*models.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*models.Organization, error)
	GetPlan(ctx context.Context, orgID string) (string, error)
	UpdatePlan(ctx context.Context, orgID string, plan models.Plan) error
	EnsureIndexes(ctx context.Context) error
}

type OrganizationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewOrganizationRepository(mongodb *database.MongodbDB) OrganizationRepository {
	return &OrganizationRepositoryImpl{
		Collection: mongodb.DB.Collection("organizations"),
	}
}

func (r *OrganizationRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *OrganizationRepositoryImpl) Create(ctx context.Context, org *models.Organization) error {
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	now := time.Now()
	org.CreatedAt, org.UpdatedAt = now, now
	_, err := r.Collection.InsertOne(ctx, org)
	return err
}

func orgObjectID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("organization %q: %w", id, models.ErrInvalidInput)
	}
	return objectID, nil
}

func (r *OrganizationRepositoryImpl) findOne(ctx context.Context, filter bson.M, label string, opts ...*options.FindOneOptions) (*models.Organization, error) {
	var org models.Organization
	err := r.Collection.FindOne(ctx, filter, opts...).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("organization %s: %w", label, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	objectID, err := orgObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objectID}, id)
}

func (r *OrganizationRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return r.findOne(ctx, bson.M{"slug": slug}, slug)
}

// GetPlan reads only the plan field; it runs on every permission cache miss
func (r *OrganizationRepositoryImpl) GetPlan(ctx context.Context, orgID string) (string, error) {
	objectID, err := orgObjectID(orgID)
	if err != nil {
		return "", err
	}
	org, err := r.findOne(ctx, bson.M{"_id": objectID}, orgID, options.FindOne().SetProjection(bson.M{"plan": 1}))
	if err != nil {
		return "", err
	}
	return string(org.Plan), nil
}

func (r *OrganizationRepositoryImpl) UpdatePlan(ctx context.Context, orgID string, plan models.Plan) error {
	objectID, err := orgObjectID(orgID)
	if err != nil {
		return err
	}
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"plan": plan, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("organization %s: %w", orgID, models.ErrNotFound)
	}
	return nil
}
