// Package jobs defines core types shared across subsystems.
package jobs

import "time"

// Job is the canonical posting entity produced by normalization and
// persisted by the store. The (SiteID, JobID) pair is the natural key.
type Job struct {
	SiteID          string    `json:"site_id"`
	JobID           string    `json:"job_id"`
	Title           string    `json:"title"`
	CompanyName     string    `json:"company_name,omitempty"`
	ApplyURL        string    `json:"apply_url,omitempty"`
	SourceURL       string    `json:"source_url"`
	SalaryMin       *float64  `json:"salary_min,omitempty"`
	SalaryMax       *float64  `json:"salary_max,omitempty"`
	LocationCity    string    `json:"location_city,omitempty"`
	LocationState   string    `json:"location_state,omitempty"`
	LocationCountry string    `json:"location_country,omitempty"`
	Remote          bool      `json:"remote"`
	Hybrid          bool      `json:"hybrid"`
	FuzzyScore      *float64  `json:"fuzzy_score,omitempty"`
	LastSeen        time.Time `json:"last_seen"`
	Status          string    `json:"status,omitempty"`
}

// SiteConfig describes one configured job board. Type selects the adapter
// variant; the remaining knobs are interpreted per variant.
type SiteConfig struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
	Type string `json:"type" mapstructure:"type"`
	URL  string `json:"url" mapstructure:"url"`

	// Structured-API variants.
	Method   string         `json:"method,omitempty" mapstructure:"method"`
	Payload  map[string]any `json:"payload,omitempty" mapstructure:"payload"`
	JobsKey  string         `json:"jobs_key,omitempty" mapstructure:"jobs_key"`
	BoardKey string         `json:"board_key,omitempty" mapstructure:"board_key"`
}

// FilterPolicy is the relevance criteria a Job is evaluated against.
// A zero FuzzyThreshold means substring matching; anything above zero
// switches the positive-term check into fuzzy mode.
type FilterPolicy struct {
	PositiveTerms  []string `mapstructure:"positive_terms"`
	NegativeTerms  []string `mapstructure:"negative_terms"`
	LocationTerms  []string `mapstructure:"location_terms"`
	RequireRemote  bool     `mapstructure:"require_remote"`
	FuzzyThreshold float64  `mapstructure:"fuzzy_threshold"`
}

// SiteOutcome is the terminal state recorded for one site in a run.
type SiteOutcome string

// Outcome values reported in the run summary.
const (
	OutcomeSaved   SiteOutcome = "saved"
	OutcomeEmpty   SiteOutcome = "empty"
	OutcomeFailed  SiteOutcome = "failed"
	OutcomeSkipped SiteOutcome = "skipped"
)

// SiteResult accumulates per-site counters during a run.
type SiteResult struct {
	SiteID   string      `json:"site_id"`
	SiteName string      `json:"site_name"`
	Outcome  SiteOutcome `json:"outcome"`
	Scraped  int         `json:"scraped"`
	Kept     int         `json:"kept"`
	Saved    int         `json:"saved"`
	Error    string      `json:"error,omitempty"`
}

// RunSummary is the aggregate result of one ingestion batch.
type RunSummary struct {
	RunID       string       `json:"run_id"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Sites       []SiteResult `json:"sites"`
	FailedSites int          `json:"failed_sites"`
	TotalSaved  int          `json:"total_saved"`
	TotalInDB   int64        `json:"total_in_db"`
}
