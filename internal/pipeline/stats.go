package pipeline

import (
	"maps"
	"math"
	"slices"
	"sync"
	"time"
)

// ParseStats keeps a rolling window of ParsePath outcomes, grouped by the
// parser that read the source.
type ParseStats struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	byName map[string]*outcomes
}

// outcomes holds one parser's samples, oldest first.
type outcomes struct {
	at     []time.Time
	took   []time.Duration
	failed []bool
}

// ParserStats aggregates the samples of one parser, or of all of them.
type ParserStats struct {
	Parses      int       `json:"parses"`
	Failures    int       `json:"failures"`
	FailureRate float64   `json:"failure_rate"`
	MinMs       float64   `json:"min_ms"`
	MaxMs       float64   `json:"max_ms"`
	MeanMs      float64   `json:"mean_ms"`
	P50Ms       float64   `json:"p50_ms"`
	P95Ms       float64   `json:"p95_ms"`
	P99Ms       float64   `json:"p99_ms"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// StatsReport is what /api/stats/parse returns.
type StatsReport struct {
	Window  string                 `json:"window"`
	Total   ParserStats            `json:"total"`
	Parsers map[string]ParserStats `json:"parsers"`
}

// NewParseStats keeps samples for window, one hour when window is not
// positive.
func NewParseStats(window time.Duration) *ParseStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ParseStats{window: window, now: time.Now, byName: map[string]*outcomes{}}
}

// Record adds one parse by parser that took d and failed when err is set.
func (s *ParseStats) Record(parser string, d time.Duration, err error) {
	d = max(d, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.byName[parser]
	if o == nil {
		o = &outcomes{}
		s.byName[parser] = o
	}
	o.at = append(o.at, s.now())
	o.took = append(o.took, d)
	o.failed = append(o.failed, err != nil)
}

// Report aggregates the samples still inside the window. Parsers with no
// remaining samples are dropped.
func (s *ParseStats) Report() StatsReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.window)
	report := StatsReport{Window: s.window.String(), Parsers: map[string]ParserStats{}}
	var all outcomes
	for _, name := range slices.Sorted(maps.Keys(s.byName)) {
		o := s.byName[name]
		o.expire(cutoff)
		if len(o.at) == 0 {
			delete(s.byName, name)
			continue
		}
		report.Parsers[name] = o.summarize()
		all.at = append(all.at, o.at...)
		all.took = append(all.took, o.took...)
		all.failed = append(all.failed, o.failed...)
	}
	report.Total = all.summarize()
	return report
}

// expire drops the samples recorded before cutoff.
func (o *outcomes) expire(cutoff time.Time) {
	keep, _ := slices.BinarySearchFunc(o.at, cutoff, func(t, c time.Time) int {
		return t.Compare(c)
	})
	o.at = o.at[keep:]
	o.took = o.took[keep:]
	o.failed = o.failed[keep:]
}

func (o *outcomes) summarize() ParserStats {
	var st ParserStats
	if len(o.took) == 0 {
		return st
	}

	ms := make([]float64, len(o.took))
	var sum float64
	for i, d := range o.took {
		ms[i] = float64(d) / float64(time.Millisecond)
		sum += ms[i]
		if o.failed[i] {
			st.Failures++
			if o.at[i].After(st.LastFailure) {
				st.LastFailure = o.at[i]
			}
		}
	}
	slices.Sort(ms)

	st.Parses = len(ms)
	st.FailureRate = float64(st.Failures) / float64(st.Parses)
	st.MinMs = ms[0]
	st.MaxMs = ms[len(ms)-1]
	st.MeanMs = sum / float64(len(ms))
	st.P50Ms = rank(ms, 0.50)
	st.P95Ms = rank(ms, 0.95)
	st.P99Ms = rank(ms, 0.99)
	return st
}

// rank is the nearest-rank quantile q of sorted, 0 < q <= 1.
func rank(sorted []float64, q float64) float64 {
	i := int(math.Ceil(q*float64(len(sorted)))) - 1
	return sorted[min(max(i, 0), len(sorted)-1)]
}
