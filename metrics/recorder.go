package metrics

import (
	"context"
	"sync"
)

// Recorder is an in-memory Sink for tests and CLI diagnostics.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]int64
	obs    map[string][]float64
}

var _ Sink = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		counts: make(map[string]int64),
		obs:    make(map[string][]float64),
	}
}

// Count implements Sink.
func (r *Recorder) Count(_ context.Context, name string, n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name] += n
}

// Observe implements Sink.
func (r *Recorder) Observe(_ context.Context, name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs[name] = append(r.obs[name], value)
}

// CountOf returns the accumulated value for a counter.
func (r *Recorder) CountOf(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// Observations returns a copy of the recorded values for a histogram.
func (r *Recorder) Observations(name string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.obs[name]))
	copy(out, r.obs[name])
	return out
}
