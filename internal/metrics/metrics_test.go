package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveList(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveList(3, 10*time.Millisecond, nil)
	m.ObserveList(0, time.Millisecond, nil)
	m.ObserveList(0, time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(m.ListQueries.WithLabelValues(OutcomeOK)); got != 2 {
		t.Errorf("ok count = %v; want 2", got)
	}
	if got := testutil.ToFloat64(m.ListQueries.WithLabelValues(OutcomeError)); got != 1 {
		t.Errorf("error count = %v; want 1", got)
	}
}

func TestMetrics_ObserveHTTP(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveHTTP("GET", "/api/advocates", 200, time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/advocates", "200")); got != 1 {
		t.Errorf("matched route count = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("unmatched route count = %v; want 1", got)
	}
}

func TestMetrics_IncrementSeed(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementSeed(nil)
	m.IncrementSeed(errors.New("tx aborted"))
	m.IncrementSeed(nil)

	if got := testutil.ToFloat64(m.SeedRuns.WithLabelValues(OutcomeOK)); got != 2 {
		t.Errorf("ok seeds = %v; want 2", got)
	}
	if got := testutil.ToFloat64(m.SeedRuns.WithLabelValues(OutcomeError)); got != 1 {
		t.Errorf("error seeds = %v; want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.ObserveList(1, time.Millisecond, nil)
	m.IncrementSeed(nil)
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic registering the same collectors twice")
		}
	}()
	New(reg)
}
