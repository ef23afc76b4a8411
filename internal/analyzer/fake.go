package analyzer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fairlens/fairlens/internal/core/domain"
)

// FakeScorer is an in-process Scorer for tests and local development. Each
// layer can be given a fixed score, an error, or an artificial delay.
type FakeScorer struct {
	mu     sync.Mutex
	scores map[domain.Layer]float64
	errs   map[domain.Layer]error
	delays map[domain.Layer]time.Duration
	calls  map[domain.Layer]int
}

// NewFakeScorer returns a scorer that yields score for every layer.
func NewFakeScorer(score float64) *FakeScorer {
	f := &FakeScorer{
		scores: make(map[domain.Layer]float64),
		errs:   make(map[domain.Layer]error),
		delays: make(map[domain.Layer]time.Duration),
		calls:  make(map[domain.Layer]int),
	}
	for _, l := range domain.Layers() {
		f.scores[l] = score
	}
	return f
}

// SetScore fixes the score returned for one layer.
func (f *FakeScorer) SetScore(layer domain.Layer, score float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[layer] = score
	delete(f.errs, layer)
}

// SetError makes one layer fail with err.
func (f *FakeScorer) SetError(layer domain.Layer, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[layer] = err
}

// SetDelay makes one layer sleep before answering, respecting ctx.
func (f *FakeScorer) SetDelay(layer domain.Layer, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[layer] = d
}

// Calls reports how many times a layer was scored.
func (f *FakeScorer) Calls(layer domain.Layer) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[layer]
}

// TotalCalls reports the number of Score invocations across all layers.
func (f *FakeScorer) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Score implements Scorer.
func (f *FakeScorer) Score(ctx context.Context, layer domain.Layer, payload any) (float64, json.RawMessage, error) {
	f.mu.Lock()
	f.calls[layer]++
	delay := f.delays[layer]
	err := f.errs[layer]
	score := f.scores[layer]
	f.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, nil, &domain.LayerError{Layer: layer, Code: domain.LayerErrTimeout, Reason: ctx.Err().Error()}
		case <-timer.C:
		}
	}

	if err != nil {
		return 0, nil, err
	}
	return score, nil, nil
}

// NewFakeSet wires all four adapters over a single FakeScorer.
func NewFakeSet(scorer *FakeScorer, opts ...Option) []LayerAnalyzer {
	return []LayerAnalyzer{
		NewPreprocessing(scorer, opts...),
		NewModelLevel(scorer, opts...),
		NewInteractive(scorer, opts...),
		NewEvaluation(scorer, opts...),
	}
}
