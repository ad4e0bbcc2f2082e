// Package filter implements the relevance decision for canonical jobs.
package filter

import (
	"strings"

	"github.com/jobsift/jobsift/internal/jobs"
)

// Engine evaluates jobs against a fixed policy. It holds no mutable state
// and is safe for reuse across sites within a run.
type Engine struct {
	policy jobs.FilterPolicy
}

// New creates an Engine for the given policy.
func New(policy jobs.FilterPolicy) *Engine {
	return &Engine{policy: policy}
}

// ShouldKeep reports whether the job passes the policy. The second return is
// the best positive-term similarity in fuzzy mode (zero in substring mode),
// kept so callers can record it alongside saved jobs.
//
// Checks short-circuit in order: negative terms, positive terms, location,
// remote. Negative terms always override a positive match. The location
// check passes permissively when the job has no city; in that case the
// remote requirement is skipped as well, since neither can be evaluated
// against a job that carries no location signal.
func (e *Engine) ShouldKeep(job jobs.Job) (bool, float64) {
	title := strings.ToLower(job.Title)

	for _, neg := range e.policy.NegativeTerms {
		if strings.Contains(title, strings.ToLower(neg)) {
			return false, 0
		}
	}

	var score float64
	if e.policy.FuzzyThreshold > 0 {
		for _, pos := range e.policy.PositiveTerms {
			if s := Similarity(title, strings.ToLower(pos)); s > score {
				score = s
			}
		}
		if score < e.policy.FuzzyThreshold {
			return false, score
		}
	} else {
		matched := false
		for _, pos := range e.policy.PositiveTerms {
			if strings.Contains(title, strings.ToLower(pos)) {
				matched = true
				break
			}
		}
		if !matched {
			return false, 0
		}
	}

	passedByAbsence := false
	if len(e.policy.LocationTerms) > 0 {
		city := strings.ToLower(job.LocationCity)
		if city == "" {
			passedByAbsence = true
		} else {
			matched := false
			for _, term := range e.policy.LocationTerms {
				if strings.Contains(city, strings.ToLower(term)) {
					matched = true
					break
				}
			}
			if !matched {
				return false, score
			}
		}
	}

	if e.policy.RequireRemote && !passedByAbsence && !job.Remote {
		return false, score
	}

	return true, score
}

// Similarity computes a normalized edit similarity in [0,1] between two
// strings: 2*LCS(a,b) / (len(a)+len(b)). Identical strings score 1; strings
// with no common subsequence score 0. Appending non-matching characters to
// either side can only lower the score, so a term contained verbatim in a
// title always scores at least 2*len(term)/(len(term)+len(title)).
func Similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := lcsLength(a, b)
	return 2 * float64(common) / float64(len(a)+len(b))
}

func lcsLength(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				curr[j+1] = prev[j] + 1
			} else if prev[j+1] >= curr[j] {
				curr[j+1] = prev[j+1]
			} else {
				curr[j+1] = curr[j]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
