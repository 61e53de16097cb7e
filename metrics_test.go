package duotext

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.recordField(ActionTranslate, "translated")
	m.recordCache(true)
	m.recordProvider(nil, time.Now())
}

func TestMetrics_AnnotatorRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	provider := newFrenchProvider()
	a := NewAnnotator("fr_FR", provider, WithMetrics(m), WithCache(newMapCache()))
	table := newTestTable("a", "Hello", "b", "Save", "c", " ")

	if _, err := a.Translate(context.Background(), table); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Translate(context.Background(), table); err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"translated", testutil.ToFloat64(m.fields.WithLabelValues("translate", "translated")), 2},
		{"cached", testutil.ToFloat64(m.fields.WithLabelValues("translate", "cached")), 2},
		{"skipped", testutil.ToFloat64(m.fields.WithLabelValues("translate", "skipped")), 2},
		{"cache misses", testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")), 2},
		{"cache hits", testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")), 2},
		{"provider success", testutil.ToFloat64(m.providerRequests.WithLabelValues("success")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if n := testutil.CollectAndCount(m.providerDuration); n != 1 {
		t.Errorf("expected one duration series, got %d", n)
	}
}

func TestMetrics_ProviderErrors(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	provider := &scriptedProvider{err: &ProviderError{Message: "down"}}
	a := NewAnnotator("fr_FR", provider, WithMetrics(m))

	if _, err := a.Translate(context.Background(), newTestTable("k", "Hello")); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.providerRequests.WithLabelValues("error")); got != 1 {
		t.Errorf("provider errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.fields.WithLabelValues("translate", "failed")); got != 1 {
		t.Errorf("failed fields = %v, want 1", got)
	}
}
