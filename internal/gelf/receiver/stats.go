package receiver

import "sync/atomic"

// statsCounters holds the live atomic counters behind Receiver.Stats.
type statsCounters struct {
	datagramsReceived atomic.Uint64
	messagesDelivered atomic.Uint64
	classifyErrors    atomic.Uint64
	decompressErrors  atomic.Uint64
	invalidUTF8Errors atomic.Uint64
	chunkErrors       atomic.Uint64
}

// Stats is a point-in-time snapshot of receiver-level counters. It does not
// include the accumulator's own counters (chunk reassembly) — callers that
// want those call Receiver.AccumulatorStats separately.
type Stats struct {
	DatagramsReceived     uint64
	MessagesDelivered     uint64
	ClassifyErrors        uint64
	DecompressErrors      uint64
	InvalidUTF8Errors     uint64
	ChunkErrors           uint64
	ActiveDispatchWorkers int
}

func (c *statsCounters) snapshot() Stats {
	return Stats{
		DatagramsReceived: c.datagramsReceived.Load(),
		MessagesDelivered: c.messagesDelivered.Load(),
		ClassifyErrors:    c.classifyErrors.Load(),
		DecompressErrors:  c.decompressErrors.Load(),
		InvalidUTF8Errors: c.invalidUTF8Errors.Load(),
		ChunkErrors:       c.chunkErrors.Load(),
	}
}
