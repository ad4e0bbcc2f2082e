package rendered

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/jobs"
)

const snapshot = `
<html><body>
<div class="job-info">
  <h4><a href="https://jobs.example.com/1">
    <div><div>VP of Product</div></div>
  </a></h4>
  <div>
    <div><a>Acme Climate</a></div>
    <div><div><div><div><div><span>New York, NY, USA</span></div></div></div></div></div>
  </div>
</div>
<div class="job-info">
  <h4><a href="https://jobs.example.com/2">
    <div><div>Head of Product (Remote)</div></div>
  </a></h4>
  <div>
    <div><a>Beta Energy</a></div>
    <div><div><div><div><div><span>Remote</span></div></div></div></div></div>
  </div>
</div>
<div class="job-info">
  <h4><a href="https://jobs.example.com/3"></a></h4>
</div>
</body></html>`

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := New(
		jobs.SiteConfig{ID: "2150", Name: "2150", Type: "getro", URL: "https://2150.getro.com/jobs"},
		Options{},
		zap.NewNop(),
	)
	require.NoError(t, err)
	return adapter
}

func TestExtract(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t)
	scraped, err := adapter.extract(snapshot)
	require.NoError(t, err)
	require.Len(t, scraped, 2, "the titleless row is skipped")

	first := scraped[0]
	assert.Equal(t, "2150", first.SiteID)
	assert.Equal(t, "2150-0", first.JobID, "ids are synthesized from name and index")
	assert.Equal(t, "VP of Product", first.Title)
	assert.Equal(t, "Acme Climate", first.CompanyName)
	assert.Equal(t, "https://jobs.example.com/1", first.ApplyURL)
	assert.Equal(t, "New York", first.LocationCity)
	assert.Equal(t, "NY", first.LocationState)
	assert.Equal(t, "USA", first.LocationCountry)
	assert.False(t, first.Remote)

	second := scraped[1]
	assert.True(t, second.Remote, "remote location and title marker agree")
	assert.Empty(t, second.LocationCity)
}

func TestExtractEmptyPage(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t)
	scraped, err := adapter.extract("<html><body><p>nothing here</p></body></html>")
	require.NoError(t, err)
	require.NotNil(t, scraped)
	assert.Empty(t, scraped, "zero rows is success, not failure")
}

func TestNewAppliesGuards(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t)
	assert.Positive(t, adapter.opts.MaxLoadMoreClicks)
	assert.Positive(t, adapter.opts.MaxScrollSteps)
	assert.Positive(t, adapter.opts.PageLoadTimeout)

	_, err := New(jobs.SiteConfig{ID: "x"}, Options{}, zap.NewNop())
	require.Error(t, err, "a site without a url is rejected")
}
