// Package ai defines the AI service abstractions used by the ingestion and
// answer pipelines.
//
// Two services are defined:
//   - Embedder: converts text into fixed-dimension vectors
//   - ChatModel: generates answers, optionally streaming token by token
//
// Concrete adapters live in subpackages (ai/openai for OpenAI-compatible
// APIs, ai/mock for tests). The Resilient wrappers in this package add the
// shared retry policy, service-unavailable classification, and embedding
// dimension validation on top of any adapter.
package ai
