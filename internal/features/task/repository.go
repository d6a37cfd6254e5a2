package task

import (
	"context"
	"errors"
	"fmt"

	"go-bizsuite/internal/common/models"
	"go-bizsuite/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, orgID, id string) (*Task, error)
	// List returns tasks of orgID matching f and the visibility prefilter
	List(ctx context.Context, orgID string, f ListFilter, visibility bson.M) ([]Task, error)
	Update(ctx context.Context, task *Task) error
	EnsureIndexes(ctx context.Context) error
}

type TaskRepositoryImpl struct {
	collection *mongo.Collection
}

func NewTaskRepository(mongodb *database.MongodbDB) TaskRepository {
	return &TaskRepositoryImpl{
		collection: mongodb.DB.Collection("tasks"),
	}
}

func (r *TaskRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "assigned_to", Value: 1}}},
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "visibility", Value: 1}, {Key: "department", Value: 1}}},
	})
	return err
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, task)
	return err
}

func (r *TaskRepositoryImpl) FindByID(ctx context.Context, orgID, id string) (*Task, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", id, models.ErrNotFound)
	}

	var task Task
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID, "org_id": orgID}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, orgID string, f ListFilter, visibility bson.M) ([]Task, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(f.Limit).
		SetSkip(f.Offset)

	cursor, err := r.collection.Find(ctx, listFilter(orgID, f, visibility), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *Task) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": task.ID, "org_id": task.OrgID}, task)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", task.ID.Hex(), models.ErrNotFound)
	}
	return nil
}
