// Package trace records what the indexer spends its time on.
//
// Spans nest from a command down to single passes:
//
//	ScopeCommand  one cnav invocation or LSP request
//	ScopeUnit     one translation unit build
//	ScopePass     preprocess, bind, freeze
//
// Enable it from the command line:
//
//	cnav index --trace=- --trace-level=detail src/
//
// Code receives the tracer through its context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "bind", parent)
//	defer span.End("")
package trace
