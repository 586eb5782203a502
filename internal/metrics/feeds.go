package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/busnow/api/models"
)

type feedState struct {
	requests      int
	failures      int
	latencyMs     WelfordState
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// FeedStats tracks per-feed call outcomes in memory. It implements
// upstream.Observer and is safe for concurrent use.
type FeedStats struct {
	mu    sync.Mutex
	feeds map[string]*feedState
	now   func() time.Time
}

// NewFeedStats creates an empty tracker. Feeds listed in known are reported
// even before their first call.
func NewFeedStats(known ...string) *FeedStats {
	s := &FeedStats{
		feeds: make(map[string]*feedState),
		now:   time.Now,
	}
	for _, name := range known {
		s.feeds[name] = &feedState{}
	}
	return s
}

// Observe records one upstream call
func (s *FeedStats) Observe(feed string, latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.feeds[feed]
	if !ok {
		st = &feedState{}
		s.feeds[feed] = st
	}

	now := s.now().UTC()
	st.requests++
	if err != nil {
		st.failures++
		st.lastFailureAt = &now
		st.lastError = err.Error()
		return
	}
	st.lastSuccessAt = &now
	st.latencyMs.Update(float64(latency) / float64(time.Millisecond))
}

// Snapshot returns the health of every feed, sorted by name
func (s *FeedStats) Snapshot() []models.FeedHealth {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	out := make([]models.FeedHealth, 0, len(s.feeds))
	for name, st := range s.feeds {
		h := models.FeedHealth{
			Feed:            name,
			Requests:        st.requests,
			Failures:        st.failures,
			MeanLatencyMs:   st.latencyMs.Mean,
			StdDevLatencyMs: st.latencyMs.StdDev(),
			LastSuccessAt:   st.lastSuccessAt,
			LastFailureAt:   st.lastFailureAt,
			LastError:       st.lastError,
			AgeSeconds:      -1,
		}
		if st.requests > 0 {
			h.SuccessRate = float64(st.requests-st.failures) / float64(st.requests)
		}
		if st.lastSuccessAt != nil {
			h.AgeSeconds = int(now.Sub(*st.lastSuccessAt).Seconds())
		}
		h.Freshness = models.CalculateFreshnessStatus(h.AgeSeconds)
		h.HealthScore = models.CalculateFeedScore(h.Requests, h.SuccessRate, h.AgeSeconds)
		h.Status = models.CalculateHealthStatus(h.HealthScore)
		out = append(out, h)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Feed < out[j].Feed })
	return out
}

// Overall aggregates a snapshot into a single status. Feeds that have never
// been called do not count against the score.
func Overall(feeds []models.FeedHealth, now time.Time) models.FeedsHealth {
	total, counted := 0, 0
	for _, f := range feeds {
		if f.Requests == 0 {
			continue
		}
		total += f.HealthScore
		counted++
	}

	result := models.FeedsHealth{
		Feeds:       feeds,
		LastUpdated: now,
	}
	if counted == 0 {
		result.Status = models.StatusUnknown
		return result
	}
	result.HealthScore = total / counted
	result.Status = models.CalculateOverallStatus(result.HealthScore)
	return result
}
