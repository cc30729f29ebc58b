package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewBookingMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveReserve("reserved")
	m.ObserveTransition("reserved", "scheduled")
	m.ObserveSweep(3, 0.25)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 4 {
		t.Fatalf("expected 4 metric families, got %d", len(families))
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveReserve("conflict")
	m.ObserveTransition("scheduled", "cancelled")
	m.ObserveSweep(0, 0)
}
