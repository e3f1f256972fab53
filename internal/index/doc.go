// Package index builds and queries the per-unit symbol index.
//
// Build runs the whole pipeline for one translation unit (preprocess, bind,
// freeze) and returns an immutable *Index. Queries never mutate it, so one
// Index may be shared by any number of readers; a rebuild produces a new
// value that callers swap in.
package index
