package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/tool-scout/pkg/research"
)

// fakeRunner returns a canned state or error for any query.
type fakeRunner struct {
	state *research.ResearchState
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, query string) (*research.ResearchState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func factoryFor(runner ResearchRunner) RunnerFactory {
	return func(logger *slog.Logger) ResearchRunner { return runner }
}

func waitForStatus(t *testing.T, svc *Service, id uuid.UUID, status string) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetJob(context.Background(), id)
		if err != nil {
			t.Fatalf("GetJob returned error: %v", err)
		}
		if job.Status == status {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", id, status)
	return nil
}

func TestCreateJobCompletes(t *testing.T) {
	state := &research.ResearchState{
		Query:    "note taking apps",
		Analysis: "Use Obsidian.",
		Companies: []research.CompanyInfo{
			{Name: "Obsidian", Website: "https://obsidian.md"},
		},
	}
	svc := NewService(factoryFor(&fakeRunner{state: state}))

	created, err := svc.CreateJob(context.Background(), CreateJobRequest{Query: "note taking apps"})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	if created.Status != StatusPending {
		t.Errorf("created status = %q, want %q", created.Status, StatusPending)
	}
	if created.Query != "note taking apps" {
		t.Errorf("created query = %q", created.Query)
	}
	if created.ID == uuid.Nil {
		t.Error("created job has no id")
	}

	job := waitForStatus(t, svc, created.ID, StatusCompleted)
	if job.Result == nil {
		t.Fatal("completed job has no result")
	}
	if job.Result.Analysis != "Use Obsidian." {
		t.Errorf("result analysis = %q", job.Result.Analysis)
	}
	if job.Error != "" {
		t.Errorf("completed job carries error %q", job.Error)
	}
}

func TestCreateJobFailure(t *testing.T) {
	svc := NewService(factoryFor(&fakeRunner{err: errors.New("firecrawl unreachable")}))

	created, err := svc.CreateJob(context.Background(), CreateJobRequest{Query: "queue systems"})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	job := waitForStatus(t, svc, created.ID, StatusFailed)
	if !strings.Contains(job.Error, "Research failed") || !strings.Contains(job.Error, "firecrawl unreachable") {
		t.Errorf("job error = %q, want the failure reason", job.Error)
	}
	if job.Result != nil {
		t.Errorf("failed job carries result %+v", job.Result)
	}

	entries, err := svc.GetJobLogs(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetJobLogs returned error: %v", err)
	}
	found := false
	for _, entry := range entries {
		if entry.Level == slog.LevelError.String() && strings.Contains(entry.Message, "Research failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("job logs missing the failure record, got %+v", entries)
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	svc := NewService(factoryFor(&fakeRunner{state: &research.ResearchState{}}))

	for _, query := range []string{"first", "second", "third"} {
		if _, err := svc.CreateJob(context.Background(), CreateJobRequest{Query: query}); err != nil {
			t.Fatalf("CreateJob(%q) returned error: %v", query, err)
		}
	}

	jobs, err := svc.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("ListJobs returned error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	for i, want := range []string{"third", "second", "first"} {
		if jobs[i].Query != want {
			t.Errorf("jobs[%d].Query = %q, want %q", i, jobs[i].Query, want)
		}
	}
}

func TestGetJobUnknown(t *testing.T) {
	svc := NewService(factoryFor(&fakeRunner{}))

	if _, err := svc.GetJob(context.Background(), uuid.New()); err == nil {
		t.Error("GetJob should fail for an unknown id")
	}
	if _, err := svc.GetJobLogs(context.Background(), uuid.New()); err == nil {
		t.Error("GetJobLogs should fail for an unknown id")
	}
}

func TestMemoryLogHandlerCapturesAttrs(t *testing.T) {
	handler := NewMemoryLogHandler()
	logger := slog.New(handler)

	logger.Info("Scraping article", "url", "https://example.com", "attempt", 2)

	entries := handler.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Level != slog.LevelInfo.String() {
		t.Errorf("level = %q, want INFO", entry.Level)
	}
	if entry.Message != "Scraping article" {
		t.Errorf("message = %q", entry.Message)
	}
	if !strings.Contains(string(entry.Metadata), "https://example.com") {
		t.Errorf("metadata = %s, want the url attr", entry.Metadata)
	}
}

func TestMemoryLogHandlerDropsOldest(t *testing.T) {
	handler := NewMemoryLogHandler()
	logger := slog.New(handler)

	total := maxLogEntries + 10
	for i := 0; i < total; i++ {
		logger.Info(fmt.Sprintf("record %d", i))
	}

	entries := handler.Entries()
	if len(entries) != maxLogEntries {
		t.Fatalf("got %d entries, want %d", len(entries), maxLogEntries)
	}
	if want := fmt.Sprintf("record %d", total-maxLogEntries); entries[0].Message != want {
		t.Errorf("oldest kept record = %q, want %q", entries[0].Message, want)
	}
	if want := fmt.Sprintf("record %d", total-1); entries[len(entries)-1].Message != want {
		t.Errorf("newest record = %q, want %q", entries[len(entries)-1].Message, want)
	}
}
