package job

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"

	"paperdesk/internal/domain"
	"paperdesk/internal/trading"
)

type CycleRunner interface {
	RunCycle(ctx context.Context) (domain.CycleResult, error)
}

// CyclePoller drives the simulation on a fixed interval for runs that
// should advance without an HTTP caller. A portfolio invariant violation
// stops the loop; everything else is logged and retried next tick.
type CyclePoller struct {
	tracer   trace.Tracer
	sim      CycleRunner
	interval time.Duration
}

func NewCyclePoller(tracer trace.Tracer, sim CycleRunner, intervalSecs int) *CyclePoller {
	return &CyclePoller{
		tracer:   tracer,
		sim:      sim,
		interval: time.Duration(intervalSecs) * time.Second,
	}
}

// Start blocks until ctx is cancelled or the portfolio state is corrupt.
func (p *CyclePoller) Start(ctx context.Context) {
	log.Printf("Cycle poller starting (every %s)...", p.interval)

	// Run immediately on start
	if err := p.runOnce(ctx); err != nil {
		log.Printf("cycle poller halting: %v", err)
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Cycle poller stopped")
			return
		case <-ticker.C:
			if err := p.runOnce(ctx); err != nil {
				log.Printf("cycle poller halting: %v", err)
				return
			}
		}
	}
}

func (p *CyclePoller) runOnce(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "cycle-poller.run-once")
	defer span.End()

	_, err := p.sim.RunCycle(ctx)
	if errors.Is(err, trading.ErrInvariantViolation) {
		return err
	}
	if err != nil {
		log.Printf("cycle error: %v", err)
	}
	return nil
}
