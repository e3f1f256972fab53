package workspace

import "time"

// Stage is a step of indexing one file.
type Stage string

const (
	StageLoad  Stage = "load"
	StageIndex Stage = "index"
	StageCache Stage = "cache"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file. Cached is set on the final event of a
// file served from the cache.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Cached  bool
	Elapsed time.Duration
}

// Sink consumes progress events. IndexFiles calls it from several
// goroutines.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(ev Event) { f(ev) }
