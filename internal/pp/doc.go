// Package pp is the C preprocessor stage. It turns lexer tokens into the
// expanded token stream the binder walks, evaluates conditional
// compilation, and records every source-level macro name occurrence
// against the macro symbol active at that point.
package pp
