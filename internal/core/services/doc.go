// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval core lives here: the corpus registry and the
// RetrievalService that owns it together with the vector index.
package services
