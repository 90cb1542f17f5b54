package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fleetpay/topup-gateway/internal/metrics"
)

type Job func(ctx context.Context) error

// Scheduler runs jobs on a fixed interval with a single-flight guard: a tick
// that fires while the previous run is still going is skipped, not queued.
type Scheduler struct {
	log *slog.Logger
	wg  sync.WaitGroup
}

func New(log *slog.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Every runs job immediately and then on every interval tick until ctx is
// cancelled.
func (s *Scheduler) Every(ctx context.Context, interval time.Duration, name string, job Job) {
	var inFlight sync.Mutex

	run := func() {
		if !inFlight.TryLock() {
			metrics.JobSkipsTotal.WithLabelValues(name).Inc()
			s.log.Warn("previous run still in flight, skipping tick", "job", name)
			return
		}
		defer inFlight.Unlock()
		if err := job(ctx); err != nil {
			s.log.Error("scheduled job failed", "job", name, "err", err)
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		run()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				run()
			}
		}
	}()
}

// Wait blocks until all scheduled loops have exited.
func (s *Scheduler) Wait() { s.wg.Wait() }
