// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Normaliser / TextExtractor: Turns a stored file into plain text
//   - Chunker: Splits text into overlapping word windows
//   - EmbeddingService: Maps text to a fixed-dimension vector
//   - VectorIndex: Append-only exact nearest-neighbour search
//   - MetadataStore: Document and passage persistence
//   - ChatStore: Chat session and message persistence
//   - FileStore: Uploaded file storage
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AnswerGenerator: Produces an answer from retrieved context. Without it,
//     questions return the retrieved context only.
//   - PromptStore: User-editable prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
