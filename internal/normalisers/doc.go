// Package normalisers provides implementations of the Normaliser interface
// for the supported upload formats. Each normaliser knows how to extract text
// content from one family of file types.
//
// Normalisers are collected in a Registry, which dispatches on a document's
// declared file type and rejects everything else with domain.ErrUnsupportedFormat.
package normalisers
