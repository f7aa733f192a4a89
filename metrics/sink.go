// Package metrics provides a best-effort sink for pipeline counters.
//
// Sinks must never block or fail the calling pipeline: implementations are
// expected to swallow their own errors. The zero-cost Noop sink is the
// default everywhere a sink is optional.
package metrics

import "context"

// Metric names emitted by the pipeline. All are counters except
// SearchLatency, which is a histogram of seconds. Sinks may ignore names
// they do not recognize.
const (
	DocumentsProcessed = "documents_processed"
	DocumentsFailed    = "documents_failed"
	ChunksWritten      = "chunks_written"
	EmbeddingRetries   = "embedding_retries"
	GenerationRetries  = "generation_retries"
	Searches           = "searches"
	SearchLatency      = "search_latency_seconds"
	InjectionFlagged   = "injection_flagged"
	InjectionBlocked   = "injection_blocked"
	DetectorFailures   = "detector_failures"
	TokensStreamed     = "tokens_streamed"
	StreamsCancelled   = "streams_cancelled"
)

// Sink receives best-effort counters and timing observations.
// Implementations must be thread-safe and must not block the caller.
type Sink interface {
	// Count adds n to the named counter.
	Count(ctx context.Context, name string, n int64)

	// Observe records a single measurement (e.g. a latency in seconds)
	// against the named histogram.
	Observe(ctx context.Context, name string, value float64)
}

// Noop is a Sink that discards everything.
type Noop struct{}

var _ Sink = Noop{}

// Count implements Sink.
func (Noop) Count(context.Context, string, int64) {}

// Observe implements Sink.
func (Noop) Observe(context.Context, string, float64) {}

// OrNoop returns the sink, or Noop when nil. Callers use it so an unset
// metrics dependency never needs a nil check at emission sites.
func OrNoop(s Sink) Sink {
	if s == nil {
		return Noop{}
	}
	return s
}
