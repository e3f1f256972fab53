// Package workspace keeps the current index of every translation unit and
// answers queries against it.
//
// Builds run outside any lock. Each Update takes a sequence number when it
// starts; its result is published only if no later Update has already been
// applied to the same unit. A superseded build returns ErrStale, a failed
// build leaves the previous snapshot in place. Readers load the snapshot
// pointer and never block writers.
package workspace
