package jobs

import (
	"context"
	"time"
)

// Adapter retrieves postings from one configured site and returns them in
// canonical form. A nil slice with a non-nil error signals total failure for
// the site; an empty non-nil slice signals a successful run that found zero
// postings. Callers rely on the distinction.
type Adapter interface {
	Scrape(ctx context.Context) ([]Job, error)
}

// Store persists Jobs with dedup-by-natural-key upsert semantics.
type Store interface {
	// CreateSchema creates the jobs table and its uniqueness constraint if
	// absent. Safe to call on every start.
	CreateSchema(ctx context.Context) error

	// Upsert inserts the job if its natural key is unseen; on conflict it
	// bumps last_seen only, leaving status and descriptive fields untouched.
	Upsert(ctx context.Context, job Job) error

	// SetStatus mutates only the status field and reports how many rows were
	// affected (zero when the key does not exist).
	SetStatus(ctx context.Context, siteID, jobID, status string) (int64, error)

	// ListJobs returns one row per distinct job_id, most recently seen first,
	// then company name, then title.
	ListJobs(ctx context.Context) ([]Job, error)

	// CountJobs returns the total number of rows in the store.
	CountJobs(ctx context.Context) (int64, error)

	Close()
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
