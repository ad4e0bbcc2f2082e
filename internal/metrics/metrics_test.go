package metrics

import (
	"testing"
	"time"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	// Recording against initialized collectors must not panic.
	ObserveSite("acme", "saved", 3*time.Second)
	AddSiteCounts("acme", 10, 4, 4)
	IncStoreError()
	SetJobsInStore(42)
}

func TestRecordersAreSafeBeforeInit(t *testing.T) {
	// The guards make recording a no-op when Init was never called; this
	// mirrors library use from tests that do not set up metrics.
	ObserveSite("acme", "failed", time.Second)
	AddSiteCounts("acme", 1, 1, 1)
	IncStoreError()
	SetJobsInStore(1)
}
