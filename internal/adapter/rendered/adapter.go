// Package rendered implements the browser-rendered adapter variant using
// headless Chrome via chromedp. It drives the board's "load more" affordance
// and infinite scroll to drain dynamically-loaded content, then extracts job
// rows from a DOM snapshot.
package rendered

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/jobs"
	"github.com/jobsift/jobsift/internal/normalize"
)

// Row selectors for the board's rendered markup.
const (
	rowSelector      = ".job-info"
	titleSelector    = "h4 > a > div > div"
	linkSelector     = "h4 > a"
	companySelector  = "div > div:nth-child(1) > a"
	locationSelector = "div > div:nth-child(2) > div:nth-child(1) > div > div > div > span"

	loadMoreXPath = `//button[normalize-space()='Load more']`
)

// Options configures the browser session.
type Options struct {
	UserAgent         string
	PageLoadTimeout   time.Duration
	MaxLoadMoreClicks int
	MaxScrollSteps    int
	SettleDelay       time.Duration
}

// Adapter scrapes one browser-rendered board. Each Scrape call owns an
// exclusive browser session released on every exit path.
type Adapter struct {
	site   jobs.SiteConfig
	opts   Options
	logger *zap.Logger
}

// New constructs an Adapter for the given site.
func New(site jobs.SiteConfig, opts Options, logger *zap.Logger) (*Adapter, error) {
	if site.URL == "" {
		return nil, fmt.Errorf("site %q has no url", site.ID)
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = 25 * time.Second
	}
	if opts.MaxLoadMoreClicks <= 0 {
		opts.MaxLoadMoreClicks = 50
	}
	if opts.MaxScrollSteps <= 0 {
		opts.MaxScrollSteps = 40
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 2 * time.Second
	}
	return &Adapter{site: site, opts: opts, logger: logger}, nil
}

// Scrape loads the page, exhausts the load-more button and infinite scroll,
// snapshots the DOM, and extracts job rows. Navigation failure is total
// failure for the site; per-row extraction failures are logged and skipped.
func (a *Adapter) Scrape(ctx context.Context) ([]jobs.Job, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(a.opts.UserAgent),
	)
	allocatorCtx, cancelAllocator := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAllocator()
	browserCtx, cancelBrowser := chromedp.NewContext(allocatorCtx)
	defer cancelBrowser()

	navCtx, cancelNav := context.WithTimeout(browserCtx, a.opts.PageLoadTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
		chromedp.Navigate(a.site.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("site %s: navigate %s: %w", a.site.ID, a.site.URL, err)
	}

	a.loadMore(browserCtx)
	a.scrollToBottom(browserCtx)

	var html string
	snapCtx, cancelSnap := context.WithTimeout(browserCtx, a.opts.PageLoadTimeout)
	defer cancelSnap()
	if err := chromedp.Run(snapCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("site %s: snapshot dom: %w", a.site.ID, err)
	}

	return a.extract(html)
}

// loadMore clicks the "Load more" affordance until it stops existing or the
// iteration guard is hit, so a page that keeps re-rendering the button
// cannot spin forever.
func (a *Adapter) loadMore(browserCtx context.Context) {
	for i := 0; i < a.opts.MaxLoadMoreClicks; i++ {
		clickCtx, cancel := context.WithTimeout(browserCtx, 3*time.Second)
		err := chromedp.Run(clickCtx, chromedp.Click(loadMoreXPath, chromedp.BySearch))
		cancel()
		if err != nil {
			return
		}
		if err := chromedp.Run(browserCtx, chromedp.Sleep(a.opts.SettleDelay)); err != nil {
			return
		}
	}
	a.logger.Warn("Load-more guard reached before the button disappeared",
		zap.String("site", a.site.ID), zap.Int("clicks", a.opts.MaxLoadMoreClicks))
}

// scrollToBottom scrolls in steps until the page height stops growing for
// one iteration, bounded by the step guard.
func (a *Adapter) scrollToBottom(browserCtx context.Context) {
	var height int64
	if err := chromedp.Run(browserCtx,
		chromedp.Evaluate(`document.body.scrollHeight`, &height),
	); err != nil {
		a.logger.Warn("Failed to read initial scroll height",
			zap.String("site", a.site.ID), zap.Error(err))
		return
	}
	for i := 0; i < a.opts.MaxScrollSteps; i++ {
		var next int64
		err := chromedp.Run(browserCtx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(a.opts.SettleDelay),
			chromedp.Evaluate(`document.body.scrollHeight`, &next),
		)
		if err != nil {
			a.logger.Warn("Scroll step failed",
				zap.String("site", a.site.ID), zap.Error(err))
			return
		}
		if next == height {
			return
		}
		height = next
	}
}

// extract parses the DOM snapshot into canonical jobs. The board exposes no
// stable job identifier, so one is synthesized from the site name and row
// index, matching what the board has always been keyed by.
func (a *Adapter) extract(html string) ([]jobs.Job, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("site %s: parse dom snapshot: %w", a.site.ID, err)
	}

	out := make([]jobs.Job, 0, 32)
	doc.Find(rowSelector).Each(func(idx int, row *goquery.Selection) {
		title := strings.TrimSpace(row.Find(titleSelector).Text())
		if title == "" {
			a.logger.Warn("Skipping job row without a title",
				zap.String("site", a.site.ID), zap.Int("index", idx))
			return
		}
		link, _ := row.Find(linkSelector).Attr("href")
		company := strings.TrimSpace(row.Find(companySelector).Text())
		location := strings.TrimSpace(row.Find(locationSelector).Text())

		job := jobs.Job{
			SiteID:      a.site.ID,
			JobID:       fmt.Sprintf("%s-%d", a.site.Name, idx),
			Title:       title,
			CompanyName: company,
			ApplyURL:    link,
			SourceURL:   a.site.URL,
		}
		normalize.Apply(&job, location)
		out = append(out, job)
	})
	return out, nil
}
