package trading

import "paperdesk/internal/domain"

// PnLTracker records one total portfolio value per cycle. The series is
// append-only and grows for the lifetime of the run.
type PnLTracker struct {
	samples []domain.PnLSample
	nextSeq int64
}

func NewPnLTracker() *PnLTracker {
	return &PnLTracker{}
}

// Sample appends one point at the next sequence index.
func (t *PnLTracker) Sample(totalValue float64) domain.PnLSample {
	s := domain.PnLSample{Seq: t.nextSeq, TotalValue: totalValue}
	t.samples = append(t.samples, s)
	t.nextSeq++
	return s
}

// Series returns a copy of the full value series, oldest first.
func (t *PnLTracker) Series() []domain.PnLSample {
	out := make([]domain.PnLSample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Recent returns up to n trailing samples, oldest first.
func (t *PnLTracker) Recent(n int) []domain.PnLSample {
	if n <= 0 || n > len(t.samples) {
		n = len(t.samples)
	}
	out := make([]domain.PnLSample, n)
	copy(out, t.samples[len(t.samples)-n:])
	return out
}

func (t *PnLTracker) Len() int { return len(t.samples) }
