package pipeline

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStats(window time.Duration) (*ParseStats, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	stats := NewParseStats(window)
	stats.now = clock.now
	return stats, clock
}

func TestParseStatsGroupsByParser(t *testing.T) {
	stats, _ := newTestStats(time.Hour)
	for _, ms := range []int{10, 20, 30, 40} {
		stats.Record("yaml", time.Duration(ms)*time.Millisecond, nil)
	}
	stats.Record("csv", 5*time.Millisecond, errors.New("bad row"))

	report := stats.Report()
	if report.Window != "1h0m0s" {
		t.Errorf("expected window 1h0m0s, got %q", report.Window)
	}
	if len(report.Parsers) != 2 {
		t.Fatalf("expected 2 parsers, got %+v", report.Parsers)
	}

	yaml := report.Parsers["yaml"]
	if yaml.Parses != 4 || yaml.Failures != 0 || yaml.FailureRate != 0 {
		t.Errorf("unexpected yaml counts: %+v", yaml)
	}
	if yaml.MinMs != 10 || yaml.MaxMs != 40 || yaml.MeanMs != 25 {
		t.Errorf("unexpected yaml latency: %+v", yaml)
	}
	if yaml.P50Ms != 20 || yaml.P95Ms != 40 || yaml.P99Ms != 40 {
		t.Errorf("unexpected yaml percentiles: %+v", yaml)
	}
	if !yaml.LastFailure.IsZero() {
		t.Errorf("expected no last failure, got %v", yaml.LastFailure)
	}

	csv := report.Parsers["csv"]
	if csv.Parses != 1 || csv.Failures != 1 || csv.FailureRate != 1 {
		t.Errorf("unexpected csv counts: %+v", csv)
	}
	if csv.LastFailure.IsZero() {
		t.Error("expected last failure time for csv")
	}

	if report.Total.Parses != 5 || report.Total.Failures != 1 {
		t.Errorf("unexpected total: %+v", report.Total)
	}
	if report.Total.FailureRate != 0.2 {
		t.Errorf("expected failure rate 0.2, got %f", report.Total.FailureRate)
	}
	if report.Total.MinMs != 5 || report.Total.MaxMs != 40 {
		t.Errorf("unexpected total range: %+v", report.Total)
	}
}

func TestParseStatsExpiresOldSamples(t *testing.T) {
	stats, clock := newTestStats(time.Minute)
	stats.Record("yaml", time.Millisecond, nil)
	stats.Record("csv", time.Millisecond, nil)

	clock.t = clock.t.Add(45 * time.Second)
	stats.Record("yaml", 3*time.Millisecond, errors.New("boom"))

	clock.t = clock.t.Add(30 * time.Second)
	report := stats.Report()
	if _, ok := report.Parsers["csv"]; ok {
		t.Errorf("expected csv to expire, got %+v", report.Parsers)
	}
	yaml := report.Parsers["yaml"]
	if yaml.Parses != 1 || yaml.Failures != 1 || yaml.MinMs != 3 {
		t.Errorf("expected only the recent yaml sample, got %+v", yaml)
	}
	if len(stats.byName) != 1 {
		t.Errorf("expected expired parser to be dropped, have %d", len(stats.byName))
	}
}

func TestParseStatsClampsNegativeDuration(t *testing.T) {
	stats, _ := newTestStats(time.Hour)
	stats.Record("text", -time.Second, nil)
	st := stats.Report().Parsers["text"]
	if st.Parses != 1 || st.MinMs != 0 || st.MaxMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", st)
	}
}

func TestParseStatsEmptyReport(t *testing.T) {
	report := NewParseStats(0).Report()
	if report.Window != "1h0m0s" {
		t.Errorf("expected default window, got %q", report.Window)
	}
	if report.Total != (ParserStats{}) || len(report.Parsers) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
