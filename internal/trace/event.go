package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	}
	return "unknown"
}

// Scope is the granularity of an event; smaller values are coarser.
type Scope uint8

const (
	ScopeCommand Scope = iota + 1
	ScopeUnit
	ScopePass
	ScopeRequest // single LSP or MCP request
)

func (s Scope) String() string {
	switch s {
	case ScopeCommand:
		return "command"
	case ScopeUnit:
		return "unit"
	case ScopePass:
		return "pass"
	case ScopeRequest:
		return "request"
	}
	return "unknown"
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	Elapsed  time.Duration // set on KindSpanEnd
	Extra    map[string]string
}
