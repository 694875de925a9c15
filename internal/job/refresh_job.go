package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshJob recalibrates the generator and refits the advisory models
// once a day at a fixed UTC hour.
type RefreshJob struct {
	tracer      trace.Tracer
	sim         Refresher
	refreshHour int
}

func NewRefreshJob(tracer trace.Tracer, sim Refresher, refreshHourUTC int) *RefreshJob {
	if refreshHourUTC < 0 || refreshHourUTC > 23 {
		refreshHourUTC = 0
	}
	return &RefreshJob{tracer: tracer, sim: sim, refreshHour: refreshHourUTC}
}

func (j *RefreshJob) Start(ctx context.Context) {
	if j.sim == nil {
		log.Println("Refresh job disabled: no service")
		<-ctx.Done()
		return
	}
	for {
		next := nextRunUTC(time.Now().UTC(), j.refreshHour)
		wait := time.Until(next)
		if wait < time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *RefreshJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "refresh-job.run-once")
	defer span.End()

	if err := j.sim.Refresh(ctx); err != nil {
		log.Printf("refresh error: %v", err)
		return
	}
	log.Println("daily refresh complete")
}

func nextRunUTC(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}
