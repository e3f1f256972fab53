// Package diag defines the diagnostic model shared by the lexer, the
// preprocessor, the binder and the project loaders.
//
// Diagnostic is the central record: Severity, Code, Message, a primary
// source.Span and optional Notes pointing at related declarations (for a
// binder conflict, the earlier declaration that stays authoritative).
//
// Phases emit through a Reporter so they do not depend on storage. The usual
// chain is diag.ReportWarning(r, code, span, msg).WithNote(...).Emit(), with
// BagReporter collecting into a bounded Bag. A build fails exactly when its
// Bag holds an error-severity diagnostic; warnings are soft and travel with
// the finished index.
//
// Codes are grouped by phase: LEX (lexing and preprocessing), SYN (structure),
// SEM (binding), IO, PRJ (project configuration) and OBS (observability).
// Rendering lives in internal/diagfmt.
package diag
