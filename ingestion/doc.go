// Package ingestion turns uploaded documents into searchable chunks.
//
// The package owns three pieces:
//   - Lifecycle: the document status state machine (PENDING, PROCESSING,
//     READY, FAILED) with atomic claim semantics under duplicate delivery
//   - Pipeline: one processing attempt (download, extract, chunk, embed,
//     persist) with a single failure boundary that forces FAILED
//   - Worker: an ants pool draining the durable job queue onto the pipeline
//
// Processing is at-least-once from the queue's perspective; the lifecycle's
// compare-and-set claim makes it effectively-once per document.
package ingestion
