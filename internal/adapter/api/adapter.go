// Package api implements the structured-API adapter variant. It issues one
// JSON request per scrape and understands the two payload dialects the
// configured boards speak: "consider" (POST search endpoint) and
// "greenhouse" (GET job-board endpoint).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/jobs"
	"github.com/jobsift/jobsift/internal/normalize"
)

// Dialect selects how the request is built and how raw records map onto the
// canonical Job shape.
type Dialect string

// Supported payload dialects.
const (
	DialectConsider   Dialect = "consider"
	DialectGreenhouse Dialect = "greenhouse"
)

const defaultJobsKey = "jobs"

// Adapter scrapes one structured-API board.
type Adapter struct {
	site      jobs.SiteConfig
	dialect   Dialect
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// Options configures shared HTTP behavior.
type Options struct {
	UserAgent string
	Timeout   time.Duration
}

// New constructs an Adapter for the given site and dialect.
func New(site jobs.SiteConfig, dialect Dialect, opts Options, logger *zap.Logger) (*Adapter, error) {
	if site.URL == "" {
		return nil, fmt.Errorf("site %q has no url", site.ID)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Adapter{
		site:      site,
		dialect:   dialect,
		client:    &http.Client{Timeout: timeout},
		userAgent: opts.UserAgent,
		logger:    logger,
	}, nil
}

// Scrape fetches the board's job list and normalizes it. A transport error,
// a non-2xx status, or a body missing the expected job list all count as
// total failure for the site; malformed individual records are skipped.
func (a *Adapter) Scrape(ctx context.Context) ([]jobs.Job, error) {
	body, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("site %s: decode response: %w", a.site.ID, err)
	}

	jobsKey := a.site.JobsKey
	if jobsKey == "" {
		jobsKey = defaultJobsKey
	}
	rawList, ok := payload[jobsKey].([]any)
	if !ok {
		return nil, fmt.Errorf("site %s: response has no %q list", a.site.ID, jobsKey)
	}

	out := make([]jobs.Job, 0, len(rawList))
	for idx, raw := range rawList {
		record, ok := raw.(map[string]any)
		if !ok {
			a.logger.Warn("Skipping non-object job record",
				zap.String("site", a.site.ID), zap.Int("index", idx))
			continue
		}
		job, ok := a.transform(record)
		if !ok {
			a.logger.Warn("Skipping job record without usable id or title",
				zap.String("site", a.site.ID), zap.Int("index", idx))
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

func (a *Adapter) fetch(ctx context.Context) ([]byte, error) {
	method := a.site.Method
	if method == "" {
		if a.dialect == DialectConsider {
			method = http.MethodPost
		} else {
			method = http.MethodGet
		}
	}

	var req *http.Request
	var err error
	switch method {
	case http.MethodPost:
		payload := a.site.Payload
		if payload == nil && a.dialect == DialectConsider {
			payload = considerPayload(a.site)
		}
		encoded, merr := json.Marshal(payload)
		if merr != nil {
			return nil, fmt.Errorf("site %s: encode payload: %w", a.site.ID, merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, a.site.URL, bytes.NewReader(encoded))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	default:
		target := a.site.URL
		if len(a.site.Payload) > 0 {
			target, err = withQueryParams(target, a.site.Payload)
			if err != nil {
				return nil, fmt.Errorf("site %s: build query: %w", a.site.ID, err)
			}
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("site %s: build request: %w", a.site.ID, err)
	}
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("site %s: fetch: %w", a.site.ID, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			a.logger.Warn("Failed to close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("site %s: unexpected status %d", a.site.ID, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("site %s: read response: %w", a.site.ID, err)
	}
	return body, nil
}

// considerPayload builds the default search request for a consider board.
func considerPayload(site jobs.SiteConfig) map[string]any {
	boardID := site.BoardKey
	if boardID == "" {
		boardID = site.ID
	}
	return map[string]any{
		"meta":  map[string]any{"size": 1000},
		"board": map[string]any{"id": boardID, "isParent": true},
		"query": map[string]any{"promoteFeatured": true},
	}
}

func withQueryParams(target string, params map[string]any) (string, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	for k, v := range params {
		q.Set(k, fmt.Sprint(v))
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// transform maps one raw record into the canonical Job. Field-level parse
// failures degrade to absent values; only a missing id or title discards the
// row entirely.
func (a *Adapter) transform(record map[string]any) (jobs.Job, bool) {
	job := jobs.Job{
		SiteID:    a.site.ID,
		SourceURL: a.site.URL,
	}

	switch a.dialect {
	case DialectGreenhouse:
		job.JobID = normalize.ID(record["internal_job_id"])
		if job.JobID == "" {
			job.JobID = normalize.ID(record["id"])
		}
		job.Title = normalize.String(record["title"])
		job.CompanyName = normalize.String(record["company_name"])
		job.ApplyURL = normalize.String(record["absolute_url"])
	default:
		job.JobID = normalize.ID(record["jobId"])
		job.Title = normalize.String(record["title"])
		job.CompanyName = normalize.String(record["companyName"])
		job.ApplyURL = normalize.String(record["applyUrl"])
		if job.ApplyURL == "" {
			job.ApplyURL = normalize.String(record["url"])
		}
		job.Remote = normalize.Bool(record["remote"])
		job.Hybrid = normalize.Bool(record["hybrid"])
	}

	if job.JobID == "" || job.Title == "" {
		return jobs.Job{}, false
	}

	job.SalaryMin, job.SalaryMax = salaryBounds(record["salary"])
	normalize.Apply(&job, locationText(record["location"]))
	return job, true
}

func salaryBounds(v any) (*float64, *float64) {
	switch salary := v.(type) {
	case map[string]any:
		return normalize.Float(salary["minValue"]), normalize.Float(salary["maxValue"])
	case string:
		return normalize.ParseSalary(salary)
	default:
		return nil, nil
	}
}

func locationText(v any) string {
	switch loc := v.(type) {
	case string:
		return loc
	case map[string]any:
		return normalize.String(loc["name"])
	default:
		return ""
	}
}
