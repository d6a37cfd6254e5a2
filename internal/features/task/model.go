package task

import (
	"time"

	"go-bizsuite/pkg/access"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrgID       string             `json:"org_id" bson:"org_id"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Status      Status             `json:"status" bson:"status"`
	Visibility  access.Visibility  `json:"visibility" bson:"visibility"`
	Department  string             `json:"department,omitempty" bson:"department,omitempty"`
	CreatedBy   string             `json:"created_by" bson:"created_by"`
	AssignedTo  string             `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	DueDate     *time.Time         `json:"due_date,omitempty" bson:"due_date,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// Ref is the part of the task the visibility rules read
func (t Task) Ref() access.TaskRef {
	return access.TaskRef{
		Visibility: t.Visibility,
		Department: t.Department,
		CreatedBy:  t.CreatedBy,
		AssignedTo: t.AssignedTo,
	}
}

type CreateTaskInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Visibility  access.Visibility `json:"visibility"`
	Department  string            `json:"department"`
	AssignedTo  string            `json:"assigned_to"`
	DueDate     *time.Time        `json:"due_date"`
}

// UpdateTaskInput carries only the fields being changed
type UpdateTaskInput struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Visibility  *access.Visibility `json:"visibility"`
	Department  *string            `json:"department"`
	AssignedTo  *string            `json:"assigned_to"`
	DueDate     *time.Time         `json:"due_date"`
}

type ListFilter struct {
	Status     Status
	AssignedTo string
	Limit      int64
	Offset     int64
}
