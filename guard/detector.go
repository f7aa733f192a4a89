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


package guard

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/metrics"
)

// Mode selects how detection results affect retrieval.
type Mode int

const (
	// ModeOff computes assessments for metadata only.
	ModeOff Mode = iota

	// ModeFlag annotates risky chunks and emits a metric; nothing is
	// dropped.
	ModeFlag

	// ModeBlock drops chunks scoring at or above the threshold.
	ModeBlock
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeFlag:
		return "flag"
	case ModeBlock:
		return "block"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Flag names attached to assessments.
const (
	FlagImperativeOverride = "imperative_override"
	FlagRolePlay           = "role_play"
	FlagInstructionDensity = "instruction_density"
)

// DefaultThreshold is the score at which a chunk counts as flagged.
const DefaultThreshold = 0.5

// Heuristic patterns. Document content is adversarial by definition here, so
// these aim for cheap recall over adversarial completeness.
var (
	overridePattern = regexp.MustCompile(`(?i)\b(ignore|disregard|forget|override)\b.{0,40}\b(previous|above|prior|earlier|all|any|system)\b.{0,40}\b(instruction|instructions|rule|rules|prompt|prompts|context|directive|directives)\b` +
		`|(?i)\bnew\s+instructions?\b|(?i)\byou\s+must\s+now\b|(?i)\bdo\s+not\s+follow\b`)

	rolePlayPattern = regexp.MustCompile(`(?i)\byou\s+are\s+(now\s+)?(a|an|the)\b|(?i)\b(pretend|act\s+as|roleplay|role-play)\b|(?i)\bsystem\s+prompt\b|(?i)\bjailbreak\b|(?i)\bdeveloper\s+mode\b`)

	imperativeVerbPattern = regexp.MustCompile(`(?i)^\s*(ignore|disregard|forget|reveal|output|print|write|say|repeat|translate|execute|run|delete|send|tell|respond|answer|always|never)\b`)

	sentenceSplitPattern = regexp.MustCompile(`[.!?\n]+`)
)

// Detector scores untrusted text for adversarial-instruction risk. A zero
// Detector is not usable; construct with NewDetector.
type Detector struct {
	mode      Mode
	threshold float32
	sink      metrics.Sink
	logger    *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector) error

// WithMode sets the detection mode. Default is ModeFlag.
func WithMode(mode Mode) Option {
	return func(d *Detector) error {
		switch mode {
		case ModeOff, ModeFlag, ModeBlock:
			d.mode = mode
			return nil
		default:
			return fmt.Errorf("%w: unknown detector mode %d", core.ErrValidation, mode)
		}
	}
}

// WithThreshold sets the flagging threshold in (0,1].
func WithThreshold(threshold float32) Option {
	return func(d *Detector) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("%w: threshold must be in (0,1], got %v", core.ErrValidation, threshold)
		}
		d.threshold = threshold
		return nil
	}
}

// WithMetrics sets the metrics sink. Default is a no-op sink.
func WithMetrics(sink metrics.Sink) Option {
	return func(d *Detector) error {
		d.sink = metrics.OrNoop(sink)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger.With("component", "guard")
		return nil
	}
}

// NewDetector creates a Detector.
func NewDetector(opts ...Option) (*Detector, error) {
	d := &Detector{
		mode:      ModeFlag,
		threshold: DefaultThreshold,
		sink:      metrics.Noop{},
		logger:    slog.Default().With("component", "guard"),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Mode reports the configured detection mode.
func (d *Detector) Mode() Mode {
	return d.mode
}

// Assess scores a piece of untrusted text. The detector fails open: an
// internal panic yields a zero assessment and a failure metric, never a
// broken retrieval.
func (d *Detector) Assess(ctx context.Context, text string) (risk core.RiskAssessment) {
	defer func() {
		if r := recover(); r != nil {
			d.sink.Count(ctx, metrics.DetectorFailures, 1)
			d.logger.Error("detector panicked, failing open", "err", r)
			risk = core.RiskAssessment{}
		}
	}()

	risk = d.assess(text)
	return risk
}

func (d *Detector) assess(text string) core.RiskAssessment {
	if strings.TrimSpace(text) == "" {
		return core.RiskAssessment{}
	}

	var score float32
	var flags []string

	if overridePattern.MatchString(text) {
		score += 0.6
		flags = append(flags, FlagImperativeOverride)
	}
	if rolePlayPattern.MatchString(text) {
		score += 0.3
		flags = append(flags, FlagRolePlay)
	}
	if density := imperativeDensity(text); density >= 0.5 {
		score += float32(density) * 0.3
		flags = append(flags, FlagInstructionDensity)
	}

	if score > 1 {
		score = 1
	}

	return core.RiskAssessment{
		Score:   score,
		Flags:   flags,
		Flagged: score >= d.threshold,
	}
}

// imperativeDensity is the share of sentences opening with an imperative
// instruction verb.
func imperativeDensity(text string) float64 {
	sentences := sentenceSplitPattern.Split(text, -1)
	total, imperative := 0, 0
	for _, sentence := range sentences {
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		total++
		if imperativeVerbPattern.MatchString(sentence) {
			imperative++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(imperative) / float64(total)
}

// ScreenResult is the outcome of screening retrieved chunks.
type ScreenResult struct {
	// Chunks are the surviving chunks in their original order.
	Chunks []*core.ScoredChunk

	// Risks holds the assessment of every screened chunk, including
	// blocked ones, keyed by chunk ID.
	Risks map[core.ID]core.RiskAssessment

	// QueryRisk is the assessment of the raw user query.
	QueryRisk core.RiskAssessment

	// Blocked is how many chunks were dropped in ModeBlock.
	Blocked int
}

// Screen assesses the query and every retrieved chunk according to the
// configured mode. In ModeBlock a flagged query aborts the request with
// ErrSecurityPolicy and flagged chunks are dropped from the result.
func (d *Detector) Screen(ctx context.Context, query string, chunks []*core.ScoredChunk) (*ScreenResult, error) {
	result := &ScreenResult{
		Risks: make(map[core.ID]core.RiskAssessment, len(chunks)),
	}

	result.QueryRisk = d.Assess(ctx, query)
	if d.mode != ModeOff {
		if result.QueryRisk.Flagged {
			d.sink.Count(ctx, metrics.InjectionFlagged, 1)
			if d.mode == ModeBlock {
				d.sink.Count(ctx, metrics.InjectionBlocked, 1)
				return nil, fmt.Errorf("%w: query exceeds injection risk threshold", core.ErrSecurityPolicy)
			}
		}
	}

	for _, scored := range chunks {
		risk := d.Assess(ctx, scored.Chunk.Content)
		result.Risks[scored.Chunk.Id] = risk

		if d.mode != ModeOff && risk.Flagged {
			d.sink.Count(ctx, metrics.InjectionFlagged, 1)
			if d.mode == ModeBlock {
				d.sink.Count(ctx, metrics.InjectionBlocked, 1)
				result.Blocked++
				d.logger.Warn("chunk blocked by injection policy",
					"chunk", scored.Chunk.Id, "score", risk.Score, "flags", risk.Flags)
				continue
			}
		}
		result.Chunks = append(result.Chunks, scored)
	}

	return result, nil
}
