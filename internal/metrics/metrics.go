package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the reservation flow and the
// expiry sweeper. All methods are safe on a nil receiver so call sites never
// need to guard.
type BookingMetrics struct {
	reserveTotal     *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	sweepReapedTotal prometheus.Counter
	sweepDuration    prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		reserveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "reservations",
			Name:      "reserve_total",
			Help:      "Total slot reservation attempts",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Total committed appointment status transitions",
		}, []string{"from", "to"}),
		sweepReapedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "sweeper",
			Name:      "reaped_total",
			Help:      "Total lapsed holds reclaimed by the sweeper",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "sweeper",
			Name:      "run_duration_seconds",
			Help:      "Duration of sweeper passes",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reserveTotal, m.transitionsTotal, m.sweepReapedTotal, m.sweepDuration)
	return m
}

func (m *BookingMetrics) ObserveReserve(outcome string) {
	if m == nil {
		return
	}
	m.reserveTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveSweep(reaped int, seconds float64) {
	if m == nil {
		return
	}
	m.sweepReapedTotal.Add(float64(reaped))
	m.sweepDuration.Observe(seconds)
}
