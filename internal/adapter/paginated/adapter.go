// Package paginated implements the server-rendered paginated-board adapter
// variant. It walks numbered pages until a page yields no job rows or the
// hard page ceiling is hit, guaranteeing termination against boards with
// broken pagination.
package paginated

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jobsift/jobsift/internal/jobs"
	"github.com/jobsift/jobsift/internal/normalize"
)

// Row selectors for the board's server-rendered markup.
const (
	rowSelector       = "div.jobs_row"
	titleSelector     = "div.jobs_topRow > div.jobs_descriptionBx > div.job_text > h3"
	linkSelector      = "div.jobs_btnnRow > div.apply_btnbx > div > div > a"
	remainderSelector = "div.jobs_topRow > div.jobs_descriptionBx > div.job_text > h4"
	companySelector   = "div.jobs_topRow > div.jobs_descriptionBx > div.job_text > h4 > span"
)

// Options configures shared scraping behavior.
type Options struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxPages       int
	SiteQPS        float64
}

// Adapter scrapes one paginated HTML board.
type Adapter struct {
	site    jobs.SiteConfig
	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New constructs an Adapter for the given site.
func New(site jobs.SiteConfig, opts Options, logger *zap.Logger) (*Adapter, error) {
	if site.URL == "" {
		return nil, fmt.Errorf("site %q has no url", site.ID)
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 100
	}
	var limiter *rate.Limiter
	if opts.SiteQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.SiteQPS), 1)
	}
	return &Adapter{
		site:    site,
		opts:    opts,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Scrape walks pages starting at 0. A fetch failure on the very first page
// aborts the site entirely; a failure after at least one successful page is
// absorbed and the rows collected so far are returned. Individual rows with
// missing selectors are logged and skipped.
func (a *Adapter) Scrape(ctx context.Context) ([]jobs.Job, error) {
	out := make([]jobs.Job, 0, 64)

	for page := 0; page < a.opts.MaxPages; page++ {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("site %s: rate wait: %w", a.site.ID, err)
			}
		}

		pageJobs, err := a.scrapePage(ctx, page)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("site %s: %w", a.site.ID, err)
			}
			a.logger.Warn("Pagination stopped early",
				zap.String("site", a.site.ID), zap.Int("page", page), zap.Error(err))
			break
		}
		if len(pageJobs) == 0 {
			break
		}
		out = append(out, pageJobs...)
	}
	return out, nil
}

func (a *Adapter) scrapePage(ctx context.Context, page int) ([]jobs.Job, error) {
	target := pageURL(a.site.URL, page)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	collector := colly.NewCollector(colly.UserAgent(a.opts.UserAgent))
	if a.opts.RequestTimeout > 0 {
		collector.SetRequestTimeout(a.opts.RequestTimeout)
	}

	var pageJobs []jobs.Job
	var fetchErr error
	idx := 0

	collector.OnHTML(rowSelector, func(e *colly.HTMLElement) {
		job, ok := a.parseRow(e.DOM, page, idx)
		idx++
		if !ok {
			a.logger.Warn("Skipping job row without a title",
				zap.String("site", a.site.ID), zap.Int("page", page), zap.Int("index", idx-1))
			return
		}
		pageJobs = append(pageJobs, job)
	})
	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch page %d (status %d): %w", page, status, err)
	})

	if err := collector.Visit(target); err != nil {
		return nil, fmt.Errorf("visit page %d: %w", page, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	return pageJobs, nil
}

// pageURL builds the numbered page endpoint, fixing the double slash a
// trailing-slash site URL would otherwise produce.
func pageURL(base string, page int) string {
	target := fmt.Sprintf("%s/pagination.php?&p=%d", base, page)
	return strings.Replace(target, "//pagination", "/pagination", 1)
}

// parseRow extracts one job row. Only a missing title discards the row;
// every other missing selector degrades to an absent field.
func (a *Adapter) parseRow(row *goquery.Selection, page, idx int) (jobs.Job, bool) {
	title := strings.TrimSpace(row.Find(titleSelector).Text())
	if title == "" {
		return jobs.Job{}, false
	}

	link, _ := row.Find(linkSelector).Attr("href")
	company := row.Find(companySelector).Text()

	remainder := row.Find(remainderSelector).Text()
	location := ""
	remote := false
	if remainder != "" && company != "" {
		remainder = strings.TrimSpace(strings.Replace(remainder, company, "", 1))
		if strings.Contains(strings.ToLower(remainder), "remote") {
			remote = true
			remainder = strings.ReplaceAll(remainder, "Remote", "")
			remainder = strings.ReplaceAll(remainder, "remote", "")
		}
		location = strings.TrimSpace(strings.SplitN(remainder, "\n", 2)[0])
	}
	company = strings.TrimSpace(strings.ReplaceAll(company, "-", ""))

	applyURL, jobID := a.resolveApply(link)
	if jobID == "" {
		jobID = fmt.Sprintf("%d-%d", page, idx)
	}

	job := jobs.Job{
		SiteID:      a.site.ID,
		JobID:       jobID,
		Title:       title,
		CompanyName: company,
		ApplyURL:    applyURL,
		SourceURL:   a.site.URL,
		Remote:      remote,
	}
	normalize.Apply(&job, location)
	return job, true
}

// resolveApply absolutizes a relative apply link against the site URL and
// pulls the board's job id out of its query string when present.
func (a *Adapter) resolveApply(link string) (applyURL, jobID string) {
	if link == "" {
		return "", ""
	}
	base, err := url.Parse(a.site.URL)
	if err != nil {
		return link, ""
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link, ""
	}
	resolved := base.ResolveReference(ref)
	return resolved.String(), resolved.Query().Get("jobid")
}
