package session

// Sink consumes published snapshots. OnSnapshot runs on the goroutine
// executing the session command and may call Session.Snapshot.
type Sink interface {
	OnSnapshot(Snapshot)
}

// ChannelSink forwards snapshots into a channel.
type ChannelSink struct {
	Ch chan<- Snapshot
}

func (s ChannelSink) OnSnapshot(snap Snapshot) {
	if s.Ch == nil {
		return
	}
	s.Ch <- snap
}

// FuncSink adapts a function to Sink.
type FuncSink func(Snapshot)

func (f FuncSink) OnSnapshot(snap Snapshot) {
	if f != nil {
		f(snap)
	}
}

// MultiSink fans snapshots out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) OnSnapshot(snap Snapshot) {
	for _, s := range m {
		if s != nil {
			s.OnSnapshot(snap)
		}
	}
}
