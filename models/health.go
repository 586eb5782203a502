package models

import "time"

// FeedHealth summarizes the observed behaviour of one upstream arrival feed
// since the process started
type FeedHealth struct {
	Feed            string     `json:"feed"`
	Requests        int        `json:"requests"`
	Failures        int        `json:"failures"`
	SuccessRate     float64    `json:"successRate"`     // 0-1
	MeanLatencyMs   float64    `json:"meanLatencyMs"`   // successful calls only
	StdDevLatencyMs float64    `json:"stdDevLatencyMs"` // population
	LastSuccessAt   *time.Time `json:"lastSuccessAt"`
	LastFailureAt   *time.Time `json:"lastFailureAt,omitempty"`
	LastError       string     `json:"lastError,omitempty"`
	AgeSeconds      int        `json:"ageSeconds"` // since last success, -1 if never
	Freshness       string     `json:"freshness"`  // "fresh", "stale", "unavailable"
	HealthScore     int        `json:"healthScore"`
	Status          string     `json:"status"` // "healthy", "degraded", "unhealthy", "unknown"
}

// FeedsHealth is the response body of the feed health endpoint
type FeedsHealth struct {
	Status      string       `json:"status"` // "operational", "degraded", "outage"
	HealthScore int          `json:"healthScore"`
	Feeds       []FeedHealth `json:"feeds"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

// HealthStatus constants
const (
	StatusHealthy     = "healthy"
	StatusDegraded    = "degraded"
	StatusUnhealthy   = "unhealthy"
	StatusUnknown     = "unknown"
	StatusOperational = "operational"
	StatusOutage      = "outage"
)

// FreshnessStatus constants. Feeds are called on demand, so the windows are
// wider than a polling loop would use.
const (
	FreshnessFresh       = "fresh"       // < 5min
	FreshnessStale       = "stale"       // 5min - 30min
	FreshnessUnavailable = "unavailable" // > 30min or never succeeded
)

// CalculateFreshnessStatus returns the freshness status based on seconds since
// the last successful call
func CalculateFreshnessStatus(ageSeconds int) string {
	if ageSeconds < 0 {
		return FreshnessUnavailable
	}
	if ageSeconds < 300 {
		return FreshnessFresh
	}
	if ageSeconds < 1800 {
		return FreshnessStale
	}
	return FreshnessUnavailable
}

// CalculateFeedScore returns a 0-100 score from the success rate, with a
// penalty when the last success is stale
func CalculateFeedScore(requests int, successRate float64, ageSeconds int) int {
	if requests == 0 {
		return 0
	}
	score := int(successRate*100 + 0.5)
	switch CalculateFreshnessStatus(ageSeconds) {
	case FreshnessStale:
		score -= 20
	case FreshnessUnavailable:
		score -= 50
	}
	if score < 0 {
		return 0
	}
	return score
}

// CalculateHealthStatus returns health status based on score
func CalculateHealthStatus(score int) string {
	if score >= 80 {
		return StatusHealthy
	}
	if score >= 50 {
		return StatusDegraded
	}
	if score > 0 {
		return StatusUnhealthy
	}
	return StatusUnknown
}

// CalculateOverallStatus returns the overall status based on the feed scores
func CalculateOverallStatus(score int) string {
	if score >= 80 {
		return StatusOperational
	}
	if score >= 50 {
		return StatusDegraded
	}
	return StatusOutage
}
