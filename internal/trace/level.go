package trace

import "fmt"

// Level controls which scopes are emitted.
type Level uint8

const (
	LevelOff    Level = iota
	LevelPhase        // commands and units
	LevelDetail       // plus passes
	LevelDebug        // plus requests
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	}
	return "unknown"
}

// ParseLevel accepts the names printed by String.
func ParseLevel(s string) (Level, error) {
	for l := LevelOff; l <= LevelDebug; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected off|phase|detail|debug)", s)
}

// ShouldEmit reports whether events of scope pass at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopeUnit
	case LevelDetail:
		return scope <= ScopePass
	case LevelDebug:
		return true
	}
	return false
}
