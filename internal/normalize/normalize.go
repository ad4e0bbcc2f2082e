// Package normalize maps raw source fields into canonical Job fields.
// Every helper degrades to absent values on malformed input; nothing in this
// package returns an error or panics, so a single bad field never blocks the
// rest of a record.
package normalize

import (
	"strconv"
	"strings"

	"github.com/jobsift/jobsift/internal/jobs"
)

// Location is the parsed form of a free-text location string.
type Location struct {
	City    string
	State   string
	Country string
	Remote  bool
	Hybrid  bool
}

// ParseLocation applies the uniform location heuristic:
// "remote" and "hybrid" set the respective flag with no city/state/country;
// a comma-separated string splits into city / optional state / country;
// anything else is treated as a bare city name.
func ParseLocation(raw string) Location {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Location{}
	}
	switch strings.ToLower(s) {
	case "remote":
		return Location{Remote: true}
	case "hybrid":
		return Location{Hybrid: true}
	}
	if !strings.Contains(s, ",") {
		return Location{City: s}
	}
	parts := strings.Split(s, ",")
	loc := Location{
		City:    strings.TrimSpace(parts[0]),
		Country: strings.TrimSpace(parts[len(parts)-1]),
	}
	if len(parts) >= 3 {
		loc.State = strings.TrimSpace(parts[len(parts)-2])
	}
	return loc
}

// TitleCues scans a job title for literal remote/hybrid markers.
func TitleCues(title string) (remote, hybrid bool) {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "remote"), strings.Contains(lower, "hybrid")
}

// Apply writes the parsed location into the job and ORs in title cues.
// A title marker can promote remote/hybrid to true but never demotes a flag
// the location field already set.
func Apply(job *jobs.Job, rawLocation string) {
	loc := ParseLocation(rawLocation)
	job.LocationCity = loc.City
	job.LocationState = loc.State
	job.LocationCountry = loc.Country
	remote, hybrid := TitleCues(job.Title)
	job.Remote = job.Remote || loc.Remote || remote
	job.Hybrid = job.Hybrid || loc.Hybrid || hybrid
}

var amountCleaner = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// ParseSalary normalizes a combined salary string such as "$120k-$150k/yr".
// Anything after a slash is a pay-period qualifier and is discarded before
// the range split. Unparseable input yields absent bounds.
func ParseSalary(raw string) (min, max *float64) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	parts := strings.SplitN(s, "-", 2)
	min = parseAmount(parts[0])
	if len(parts) == 2 {
		max = parseAmount(parts[1])
	}
	return min, max
}

func parseAmount(s string) *float64 {
	s = strings.ToLower(amountCleaner.Replace(strings.TrimSpace(s)))
	s = strings.TrimSuffix(s, "k")
	if s == "" {
		return nil
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &value
}

// Float converts loosely-typed numeric JSON values into a salary bound.
// API payloads deliver numbers as float64, json.Number strings, or are
// simply missing; anything non-numeric degrades to absent.
func Float(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		return parseAmount(n)
	default:
		return nil
	}
}

// ID coerces a source-native job identifier into a string. Boards deliver
// IDs as strings or JSON numbers; integral floats render without a decimal
// point so "4012345" round-trips stably across runs.
func ID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	default:
		return ""
	}
}

// String extracts a string field from a raw record, tolerating absence.
func String(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// Bool extracts a boolean field from a raw record, tolerating absence.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}
