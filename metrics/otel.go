// Copyright 2025 The citewell authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package metrics

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/citewell/citewell"

// OTelSink forwards counters and observations to the global OpenTelemetry
// meter provider. Instruments are created lazily and cached by name.
// Instrument creation errors are logged once and the metric dropped; the
// pipeline is never affected.
type OTelSink struct {
	meter metric.Meter
	mu    sync.Mutex
	ctrs  map[string]metric.Int64Counter
	hists map[string]metric.Float64Histogram
	log   *slog.Logger
}

var _ Sink = (*OTelSink)(nil)

// NewOTelSink creates a sink backed by the global otel meter provider.
func NewOTelSink() *OTelSink {
	return &OTelSink{
		meter: otel.Meter(instrumentationName),
		ctrs:  make(map[string]metric.Int64Counter),
		hists: make(map[string]metric.Float64Histogram),
		log:   slog.Default().With("component", "otel-metrics"),
	}
}

// Count implements Sink.
func (s *OTelSink) Count(ctx context.Context, name string, n int64) {
	s.mu.Lock()
	ctr, ok := s.ctrs[name]
	if !ok {
		var err error
		ctr, err = s.meter.Int64Counter(name)
		if err != nil {
			s.mu.Unlock()
			s.log.Warn("failed to create counter", "name", name, "err", err)
			return
		}
		s.ctrs[name] = ctr
	}
	s.mu.Unlock()
	ctr.Add(ctx, n)
}

// Observe implements Sink.
func (s *OTelSink) Observe(ctx context.Context, name string, value float64) {
	s.mu.Lock()
	hist, ok := s.hists[name]
	if !ok {
		var err error
		hist, err = s.meter.Float64Histogram(name)
		if err != nil {
			s.mu.Unlock()
			s.log.Warn("failed to create histogram", "name", name, "err", err)
			return
		}
		s.hists[name] = hist
	}
	s.mu.Unlock()
	hist.Record(ctx, value)
}
