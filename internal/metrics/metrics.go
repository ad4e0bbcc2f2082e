// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sitesTotal        *prometheus.CounterVec
	jobsScrapedTotal  *prometheus.CounterVec
	jobsKeptTotal     *prometheus.CounterVec
	jobsSavedTotal    *prometheus.CounterVec
	siteScrapeSeconds *prometheus.HistogramVec
	storeErrorsTotal  prometheus.Counter
	jobsInStore       prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		sitesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobsift_sites_total",
				Help: "Sites processed per run, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		jobsScrapedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobsift_jobs_scraped_total",
				Help: "Raw jobs returned by adapters, labeled by site.",
			},
			[]string{"site"},
		)
		jobsKeptTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobsift_jobs_kept_total",
				Help: "Jobs that passed the relevance filter, labeled by site.",
			},
			[]string{"site"},
		)
		jobsSavedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobsift_jobs_saved_total",
				Help: "Jobs upserted into the store, labeled by site.",
			},
			[]string{"site"},
		)
		siteScrapeSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobsift_site_scrape_duration_seconds",
				Help:    "Wall-clock duration of one site scrape.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"site"},
		)
		storeErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "jobsift_store_errors_total",
				Help: "Upsert failures absorbed during ingestion.",
			},
		)
		jobsInStore = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobsift_jobs_in_store",
				Help: "Total rows in the job store after the latest run.",
			},
		)
	})
}

// ObserveSite records the outcome and duration of one site's scrape.
func ObserveSite(site, outcome string, duration time.Duration) {
	if sitesTotal == nil {
		return
	}
	sitesTotal.WithLabelValues(outcome).Inc()
	siteScrapeSeconds.WithLabelValues(site).Observe(duration.Seconds())
}

// AddSiteCounts records scraped/kept/saved counters for one site.
func AddSiteCounts(site string, scraped, kept, saved int) {
	if jobsScrapedTotal == nil {
		return
	}
	jobsScrapedTotal.WithLabelValues(site).Add(float64(scraped))
	jobsKeptTotal.WithLabelValues(site).Add(float64(kept))
	jobsSavedTotal.WithLabelValues(site).Add(float64(saved))
}

// IncStoreError counts one absorbed store write failure.
func IncStoreError() {
	if storeErrorsTotal == nil {
		return
	}
	storeErrorsTotal.Inc()
}

// SetJobsInStore publishes the post-run store size.
func SetJobsInStore(count int64) {
	if jobsInStore == nil {
		return
	}
	jobsInStore.Set(float64(count))
}
