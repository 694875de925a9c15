package direction

import (
	"fmt"
	"log"
)

// Service keeps one direction model per symbol. Models are advisory: a
// missing or stale model degrades output to nil, never blocks a cycle.
//
// Service is not safe for concurrent use on its own; the owning service
// serializes access behind its cycle lock.
type Service struct {
	opts   TrainOptions
	models map[string]*Model
}

func NewService(opts TrainOptions) *Service {
	return &Service{
		opts:   opts,
		models: make(map[string]*Model),
	}
}

// Retrain refits the symbol's model from its full close history. Training
// failures (too little data, one-class labels) keep the previous model.
func (s *Service) Retrain(symbol string, closes []float64) error {
	samples, labels := Dataset(closes)
	if len(samples) == 0 {
		return fmt.Errorf("direction retrain %s: not enough history (%d closes)", symbol, len(closes))
	}
	model, err := Train(samples, labels, featureNames, s.opts)
	if err != nil {
		return fmt.Errorf("direction retrain %s: %w", symbol, err)
	}
	s.models[symbol] = model
	log.Printf("direction model retrained for %s on %d samples", symbol, len(samples))
	return nil
}

// RetrainAll refits every symbol, logging and skipping the ones that fail.
func (s *Service) RetrainAll(closesBySymbol map[string][]float64) {
	for symbol, closes := range closesBySymbol {
		if err := s.Retrain(symbol, closes); err != nil {
			log.Printf("%v", err)
		}
	}
}

// ProbUp returns P(next move is up) for the symbol's latest feature
// vector, or nil when no model is fitted or the history is too short.
func (s *Service) ProbUp(symbol string, closes []float64) *float64 {
	model, ok := s.models[symbol]
	if !ok {
		return nil
	}
	v := FeatureVector(closes)
	if v == nil {
		return nil
	}
	p := model.ProbUp(v)
	return &p
}

// Fitted reports whether a model exists for the symbol.
func (s *Service) Fitted(symbol string) bool {
	_, ok := s.models[symbol]
	return ok
}
