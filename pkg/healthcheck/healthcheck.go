// Package healthcheck provides component health monitoring for the
// materials service. Components register a Checker; the Engine runs all
// checks and folds them into a single summary served on /healthz.
package healthcheck

import (
	"context"
	"time"
)

// Status represents the health of a component.
type Status string

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = "healthy"
	// StatusDegraded indicates the component works but with reduced capacity.
	StatusDegraded Status = "degraded"
	// StatusUnhealthy indicates the component is not functioning.
	StatusUnhealthy Status = "unhealthy"
	// StatusUnknown indicates the health could not be determined.
	StatusUnknown Status = "unknown"
)

// Result is the outcome of a single component check.
type Result struct {
	ComponentName string                 `json:"component"`
	Status        Status                 `json:"status"`
	Message       string                 `json:"message,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	Duration      time.Duration          `json:"duration"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// Checker is implemented by components that report their own health.
type Checker interface {
	Check(ctx context.Context) *Result
	Name() string
}

// Summary aggregates the results of all registered checkers.
type Summary struct {
	OverallStatus Status             `json:"status"`
	Components    map[string]*Result `json:"components"`
	Timestamp     time.Time          `json:"timestamp"`
}

// IsHealthy reports whether every component checked out healthy.
func (s *Summary) IsHealthy() bool {
	return s.OverallStatus == StatusHealthy
}

// Summarize folds component results into an overall status: any unhealthy
// component makes the whole service unhealthy; degraded or unknown
// components make it degraded.
func Summarize(results map[string]*Result) Status {
	if len(results) == 0 {
		return StatusUnknown
	}
	overall := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded, StatusUnknown:
			overall = StatusDegraded
		}
	}
	return overall
}
