package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewPoolRegistersDistinctInstances(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	p1 := NewPool(reg1)
	p2 := NewPool(reg2)

	p1.HandlesOpened.Inc()
	p1.LiveHandles.Set(3)

	if got := readCounter(t, p1.HandlesOpened); got != 1 {
		t.Errorf("p1.HandlesOpened = %v, want 1", got)
	}
	if got := readCounter(t, p2.HandlesOpened); got != 0 {
		t.Errorf("p2.HandlesOpened = %v, want 0 (registries must not share state)", got)
	}
}

func TestNewConsolidateCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewConsolidate(reg)
	c.Runs.Inc()
	c.Emitted.Add(5)
	if got := readCounter(t, c.Runs); got != 1 {
		t.Errorf("Runs = %v, want 1", got)
	}
	if got := readCounter(t, c.Emitted); got != 5 {
		t.Errorf("Emitted = %v, want 5", got)
	}
}

func readCounter(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}
