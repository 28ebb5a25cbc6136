package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/tool-scout/pkg/research"
)

// Job statuses move pending → running → completed or failed.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// maxListedJobs caps the list endpoint to the most recent jobs.
const maxListedJobs = 50

// ResearchRunner runs one research query to completion.
type ResearchRunner interface {
	Run(ctx context.Context, query string) (*research.ResearchState, error)
}

// RunnerFactory builds a runner whose logs go to the given logger, letting
// the service capture each job's records separately.
type RunnerFactory func(logger *slog.Logger) ResearchRunner

// Job is one research run tracked by the server. Jobs live in memory only
// and are gone after a restart.
type Job struct {
	ID        uuid.UUID               `json:"id"`
	Query     string                  `json:"query"`
	Status    string                  `json:"status"`
	Result    *research.ResearchState `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

type CreateJobRequest struct {
	Query string `json:"query"`
}

// Service owns the in-memory job table and runs one worker goroutine per
// job.
type Service struct {
	newRunner RunnerFactory

	mu    sync.RWMutex
	jobs  map[uuid.UUID]*Job
	logs  map[uuid.UUID]*MemoryLogHandler
	order []uuid.UUID // newest first
}

func NewService(newRunner RunnerFactory) *Service {
	return &Service{
		newRunner: newRunner,
		jobs:      make(map[uuid.UUID]*Job),
		logs:      make(map[uuid.UUID]*MemoryLogHandler),
	}
}

func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:        uuid.New(),
		Query:     req.Query,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.logs[job.ID] = NewMemoryLogHandler()
	s.order = append([]uuid.UUID{job.ID}, s.order...)
	snapshot := *job
	s.mu.Unlock()

	// Start background worker
	go s.runWorker(job.ID, req.Query)

	return &snapshot, nil
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	snapshot := *job
	return &snapshot, nil
}

func (s *Service) ListJobs(ctx context.Context) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := len(s.order)
	if limit > maxListedJobs {
		limit = maxListedJobs
	}

	jobs := make([]Job, 0, limit)
	for _, id := range s.order[:limit] {
		jobs = append(jobs, *s.jobs[id])
	}
	return jobs, nil
}

func (s *Service) GetJobLogs(ctx context.Context, jobID uuid.UUID) ([]LogEntry, error) {
	s.mu.RLock()
	handler, ok := s.logs[jobID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	return handler.Entries(), nil
}

func (s *Service) runWorker(jobID uuid.UUID, query string) {
	ctx := context.Background()

	s.setStatus(jobID, StatusRunning)

	s.mu.RLock()
	handler := s.logs[jobID]
	s.mu.RUnlock()

	jobLogger := slog.New(handler)
	runner := s.newRunner(jobLogger)

	state, err := runner.Run(ctx, query)
	if err != nil {
		s.failJob(jobID, jobLogger, fmt.Sprintf("Research failed: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = StatusCompleted
		job.Result = state
		job.UpdatedAt = time.Now()
	}
}

func (s *Service) setStatus(jobID uuid.UUID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = status
		job.UpdatedAt = time.Now()
	}
}

func (s *Service) failJob(jobID uuid.UUID, logger *slog.Logger, reason string) {
	logger.Error(reason)

	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = StatusFailed
		job.Error = reason
		job.UpdatedAt = time.Now()
	}
}
