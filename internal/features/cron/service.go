package cron_feature

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

type CronService interface {
	Register(job Job) error
	Start()
	Stop()
	Jobs() []JobStatus
	RunNow(ctx context.Context, name string) error
	GetJobLogs(ctx context.Context, name string, limit int) ([]CronJobLog, error)
}

type registeredJob struct {
	job     Job
	entryID cron.EntryID
	status  JobStatus
}

type CronServiceImpl struct {
	repo      CronRepository
	logger    *zap.Logger
	scheduler *cron.Cron
	mu        sync.Mutex
	jobs      map[string]*registeredJob
}

func NewCronService(repo CronRepository, logger *zap.Logger) CronService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronServiceImpl{
		repo:      repo,
		logger:    logger,
		scheduler: cron.New(),
		jobs:      make(map[string]*registeredJob),
	}
}

func (s *CronServiceImpl) Register(job Job) error {
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", job.Schedule, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}

	name := job.Name
	entryID, err := s.scheduler.AddFunc(job.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		_ = s.execute(ctx, name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to scheduler: %w", err)
	}

	s.jobs[name] = &registeredJob{
		job:     job,
		entryID: entryID,
		status:  JobStatus{Name: name, Schedule: job.Schedule},
	}
	return nil
}

func (s *CronServiceImpl) Start() {
	s.logger.Info("starting scheduler", zap.Int("jobs", len(s.Jobs())))
	s.scheduler.Start()
}

func (s *CronServiceImpl) Stop() {
	<-s.scheduler.Stop().Done()
}

func (s *CronServiceImpl) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, rj := range s.jobs {
		status := rj.status
		if next := s.scheduler.Entry(rj.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *CronServiceImpl) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not registered", name)
	}
	return s.execute(ctx, name)
}

func (s *CronServiceImpl) GetJobLogs(ctx context.Context, name string, limit int) ([]CronJobLog, error) {
	return s.repo.GetLogs(ctx, name, limit)
}

func (s *CronServiceImpl) execute(ctx context.Context, name string) error {
	s.mu.Lock()
	rj := s.jobs[name]
	s.mu.Unlock()

	start := time.Now()
	processed, failed, err := rj.job.Run(ctx)
	end := time.Now()

	entry := &CronJobLog{
		CronJobName:      name,
		StartTime:        start,
		EndTime:          &end,
		Status:           StatusSuccess,
		RecordsProcessed: processed,
		RecordsFailed:    failed,
		CreatedAt:        end,
	}
	if err != nil {
		entry.Status = StatusFailed
		entry.Error = err.Error()
		s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
	} else if failed > 0 {
		s.logger.Warn("job finished with failures", zap.String("job", name), zap.Int("processed", processed), zap.Int("failed", failed))
	}

	s.mu.Lock()
	rj.status.LastRun = &start
	rj.status.Runs++
	rj.status.LastError = entry.Error
	s.mu.Unlock()

	if s.repo != nil {
		if logErr := s.repo.CreateLog(ctx, entry); logErr != nil {
			s.logger.Warn("job log write failed", zap.String("job", name), zap.Error(logErr))
		}
	}
	return err
}
