package cron_feature

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Job is an in-process task run on a schedule. Run returns how many items it
// processed and how many of those failed.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) (processed, failed int, err error)
}

// JobStatus is the live view of a registered job
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Runs      int        `json:"runs"`
}

// CronJobLog represents a single execution of a job
type CronJobLog struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CronJobName      string             `json:"cron_job_name" bson:"cron_job_name"`
	StartTime        time.Time          `json:"start_time" bson:"start_time"`
	EndTime          *time.Time         `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Status           string             `json:"status" bson:"status"`
	RecordsProcessed int                `json:"records_processed" bson:"records_processed"`
	RecordsFailed    int                `json:"records_failed" bson:"records_failed"`
	Error            string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
}
