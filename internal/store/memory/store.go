// Package memory provides an in-memory Store for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jobsift/jobsift/internal/jobs"
)

type naturalKey struct {
	siteID string
	jobID  string
}

// Store implements jobs.Store with a mutex-guarded map. It honors the same
// upsert contract as the Postgres store: a conflicting key bumps last_seen
// only.
type Store struct {
	mu    sync.RWMutex
	rows  map[naturalKey]jobs.Job
	clock jobs.Clock
}

// New constructs a Store.
func New(clock jobs.Clock) *Store {
	return &Store{
		rows:  make(map[naturalKey]jobs.Job),
		clock: clock,
	}
}

// CreateSchema is a no-op for the in-memory store.
func (s *Store) CreateSchema(_ context.Context) error { return nil }

// Upsert inserts the job or, when the natural key exists, updates last_seen
// in place leaving every other field untouched.
func (s *Store) Upsert(_ context.Context, job jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := naturalKey{siteID: job.SiteID, jobID: job.JobID}
	now := s.clock.Now()
	if existing, ok := s.rows[key]; ok {
		existing.LastSeen = now
		s.rows[key] = existing
		return nil
	}
	job.LastSeen = now
	job.Status = ""
	s.rows[key] = job
	return nil
}

// SetStatus mutates only the status field, reporting zero for a missing key.
func (s *Store) SetStatus(_ context.Context, siteID, jobID, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := naturalKey{siteID: siteID, jobID: jobID}
	job, ok := s.rows[key]
	if !ok {
		return 0, nil
	}
	job.Status = status
	s.rows[key] = job
	return 1, nil
}

// ListJobs returns one row per distinct job_id (the most recently seen one),
// ordered by last_seen descending, then company name, then title.
func (s *Store) ListJobs(_ context.Context) ([]jobs.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]jobs.Job, len(s.rows))
	for _, job := range s.rows {
		if prev, ok := latest[job.JobID]; ok && !job.LastSeen.After(prev.LastSeen) {
			continue
		}
		latest[job.JobID] = job
	}
	out := make([]jobs.Job, 0, len(latest))
	for _, job := range latest {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		if out[i].CompanyName != out[j].CompanyName {
			return out[i].CompanyName < out[j].CompanyName
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// CountJobs returns the number of stored rows.
func (s *Store) CountJobs(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() {}
