// Package binder walks the preprocessed token stream once, building the
// scope tree and binding every identifier occurrence to the symbol it names.
//
// Parsing is only as deep as binding needs: declarations and statements are
// parsed structurally, expressions are parsed for the static type of member
// access operands, everything else is skipped in balanced groups.
package binder
