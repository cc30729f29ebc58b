package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/metrics"
)

// Sweeper periodically reclaims lapsed reservation holds. It is the sole
// guaranteed reclaimer: clients that abandon a hold without releasing it are
// cleaned up here and nowhere else.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	timeout  time.Duration
	metrics  *metrics.BookingMetrics
	log      zerolog.Logger
}

func NewSweeper(svc *Service, interval time.Duration, m *metrics.BookingMetrics, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		timeout:  20 * time.Second,
		metrics:  m,
		log:      log,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) {
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("sweeper stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single bounded sweep pass. Individual row failures are
// logged inside the service and never abort the batch.
func (w *Sweeper) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	reaped, err := w.svc.SweepExpired(runCtx)
	elapsed := time.Since(start)
	if err != nil {
		w.log.Error().Err(err).Dur("elapsed", elapsed).Msg("sweep pass failed")
		return
	}

	w.metrics.ObserveSweep(reaped, elapsed.Seconds())
	w.log.Info().Int("reaped", reaped).Dur("elapsed", elapsed).Msg("sweep pass complete")
}
