// Package models defines data structures shared by the fetch pipeline.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format says how a source serves its daily image.
type Format string

const (
	FormatImage Format = "image"
	FormatJSON  Format = "json"
)

// DateLayout is the accepted form of an explicit target date.
const DateLayout = "2006-01-02"

// SourceDescriptor describes one configured daily-content feed.
type SourceDescriptor struct {
	Base   string   `json:"base" yaml:"base"`
	Path   string   `json:"path" yaml:"path"`
	Site   string   `json:"site" yaml:"site"`
	Format Format   `json:"format" yaml:"format"`
	Keys   []string `json:"keys,omitempty" yaml:"keys,omitempty"`
	Status *int     `json:"status,omitempty" yaml:"status,omitempty"`
	Gaps   []int    `json:"gaps,omitempty" yaml:"gaps,omitempty"`
}

// Enabled reports whether the source takes part in range backfills.
func (d SourceDescriptor) Enabled() bool {
	return d.Status == nil || *d.Status == 1
}

// URLFor formats the path template for the given date.
func (d SourceDescriptor) URLFor(date time.Time) string {
	r := strings.NewReplacer(
		"{base}", d.Base,
		"{year}", fmt.Sprintf("%04d", date.Year()),
		"{month}", fmt.Sprintf("%02d", int(date.Month())),
		"{day}", fmt.Sprintf("%02d", date.Day()),
	)
	return r.Replace(d.Path)
}

// Offsets returns the configured day gaps, or a single zero gap.
func (d SourceDescriptor) Offsets() []int {
	if len(d.Gaps) == 0 {
		return []int{0}
	}
	return d.Gaps
}

// Sources maps a source name to its descriptor.
type Sources map[string]SourceDescriptor

// Names returns the configured source names in lexicographic order.
func (s Sources) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// Today truncates now to the calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// AddDays shifts a calendar date by n days.
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// DateStamp renders the file stem for a date, e.g. 20240307.
func DateStamp(date time.Time) string {
	return date.Format("20060102")
}
