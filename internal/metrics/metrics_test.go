package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

func TestNew_RegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.BookingsCreated.Inc()
	m.BookingsRejected.WithLabelValues("conflict").Add(2)

	if got := counterValue(t, reg, "studio_bookings_created_total"); got != 1 {
		t.Fatalf("bookings created = %v", got)
	}
	if got := counterValue(t, reg, "studio_bookings_rejected_total"); got != 2 {
		t.Fatalf("bookings rejected = %v", got)
	}
}

func TestNew_PanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	New(reg)
}
