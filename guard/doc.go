// Package guard scores untrusted text for prompt-injection risk.
//
// Retrieved chunk content is authored by arbitrary uploaded documents and
// must be treated as adversarial. The Detector applies cheap regex
// heuristics (imperative override phrases, role-play markers, instruction
// density) and produces a risk score in [0,1] with named flags. Depending on
// the configured mode the result is recorded as metadata, annotated with a
// metric, or used to drop chunks from the context entirely.
//
// The detector fails open: an internal error never breaks retrieval, but it
// is counted so the failure stays observable.
package guard
