package accumulator

import "sync/atomic"

// statsCounters holds the live atomic counters behind Accumulator.Stats.
type statsCounters struct {
	chunksAccepted    atomic.Uint64
	duplicatesDropped atomic.Uint64
	messagesCompleted atomic.Uint64
	messagesExpired   atomic.Uint64
	sequenceErrors    atomic.Uint64
	reaperUnavailable atomic.Uint64
}

// Stats is a point-in-time snapshot of accumulator counters.
type Stats struct {
	ChunksAccepted    uint64
	DuplicatesDropped uint64
	MessagesCompleted uint64
	MessagesExpired   uint64
	SequenceErrors    uint64
	ReaperUnavailable uint64
}

func (c *statsCounters) snapshot() Stats {
	return Stats{
		ChunksAccepted:    c.chunksAccepted.Load(),
		DuplicatesDropped: c.duplicatesDropped.Load(),
		MessagesCompleted: c.messagesCompleted.Load(),
		MessagesExpired:   c.messagesExpired.Load(),
		SequenceErrors:    c.sequenceErrors.Load(),
		ReaperUnavailable: c.reaperUnavailable.Load(),
	}
}
