package anomaly

import (
	"fmt"
	"log"

	"github.com/narumiruna/go-iforest/pkg/iforest"

	"paperdesk/internal/ta"
)

// minSamples is the smallest return history worth fitting a forest on.
const minSamples = 32

// Detector scores each symbol's latest return against an isolation forest
// fitted on that symbol's own return history. Scores are report-only:
// higher means more anomalous, and nil means no forest is fitted yet.
//
// Detector is not safe for concurrent use on its own; the owning service
// serializes access behind its cycle lock.
type Detector struct {
	forests map[string]*iforest.IsolationForest
}

func NewDetector() *Detector {
	return &Detector{forests: make(map[string]*iforest.IsolationForest)}
}

// Refit rebuilds the symbol's forest from its full close history.
func (d *Detector) Refit(symbol string, closes []float64) error {
	rows := returnRows(closes)
	if len(rows) < minSamples {
		return fmt.Errorf("anomaly refit %s: not enough history (%d returns)", symbol, len(rows))
	}
	forest := iforest.New()
	forest.Fit(rows)
	d.forests[symbol] = forest
	log.Printf("anomaly forest refitted for %s on %d returns", symbol, len(rows))
	return nil
}

// RefitAll rebuilds every symbol's forest, logging and skipping failures.
func (d *Detector) RefitAll(closesBySymbol map[string][]float64) {
	for symbol, closes := range closesBySymbol {
		if err := d.Refit(symbol, closes); err != nil {
			log.Printf("%v", err)
		}
	}
}

// Score returns the anomaly score of the symbol's latest one-step return,
// or nil when no forest is fitted or the history is too short.
func (d *Detector) Score(symbol string, closes []float64) *float64 {
	forest, ok := d.forests[symbol]
	if !ok || len(closes) < 2 {
		return nil
	}
	rets := ta.Returns(closes, 1)
	if len(rets) == 0 {
		return nil
	}
	scores := forest.Score([][]float64{{rets[len(rets)-1]}})
	if len(scores) == 0 {
		return nil
	}
	return &scores[0]
}

// Fitted reports whether a forest exists for the symbol.
func (d *Detector) Fitted(symbol string) bool {
	_, ok := d.forests[symbol]
	return ok
}

func returnRows(closes []float64) [][]float64 {
	rets := ta.Returns(closes, len(closes))
	rows := make([][]float64, len(rets))
	for i, r := range rets {
		rows[i] = []float64{r}
	}
	return rows
}
