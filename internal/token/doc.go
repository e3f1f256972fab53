// Package token defines C token kinds as seen after preprocessing.
// Invariants:
//   - The lexer emits every identifier-like word as Ident; keywords are
//     classified only after macro expansion (Classify), so a macro may be
//     named like a keyword.
//   - Token.Span covers Text exactly for source tokens. Tokens produced by a
//     macro body carry the Expanded flag and the span of the invocation.
//   - Comments and whitespace never appear in the stream; BOL and SpaceBefore
//     flags keep the layout facts the preprocessor needs.
package token
