package testsupport

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/jobs"
)

// MustOpenJobs opens a jobs.Store for tests and registers cleanup.
func MustOpenJobs(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob records a running job for tests using the provided store.
func NewJob(t testing.TB, store *jobs.Store, filename string) *jobs.Job {
	t.Helper()

	job, err := store.Create(context.Background(), jobs.NewJob{Filename: filename, Bytes: 1024, Backend: "fake"})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
