// Package chunkset implements ChunkSet, the reassembly buffer for one
// GELF message id: an ordered table of slots filled as chunks arrive, with
// a deadline derived from its first fragment's arrival time.
package chunkset

import (
	"time"

	gelferrors "github.com/alxayo/gelf-receiver/internal/errors"
	"github.com/alxayo/gelf-receiver/internal/gelf/decompress"
	"github.com/alxayo/gelf-receiver/internal/gelf/wire"
)

// State is the result of ChunkSet.Accept.
type State int

const (
	// Partial indicates the set is still missing one or more fragments.
	Partial State = iota
	// Complete indicates every slot is filled; Unpack may now be called.
	Complete
)

// ChunkSet collects ordered fragments for one message id and reports when
// the set is complete. It is mutated only by its owner (accumulator.Accept)
// under the accumulator's table lock; ChunkSet itself holds no lock.
type ChunkSet struct {
	slots        []*wire.Chunk
	rcvCount     int
	firstArrival time.Time
	ttl          time.Duration
}

// New allocates a ChunkSet sized to first.SequenceCount and installs first
// into its slot. The returned state is Complete if first.SequenceCount == 1
// (the degenerate single-fragment-but-chunked case).
func New(first wire.Chunk, ttl time.Duration) (*ChunkSet, State, error) {
	cs := &ChunkSet{
		slots:        make([]*wire.Chunk, first.SequenceCount),
		firstArrival: first.Arrival,
		ttl:          ttl,
	}
	return cs, cs.install(first)
}

// Accept installs c into its slot, determined by c.SequenceNumber - 1. A
// chunk whose computed index is out of range fails with
// SequenceOutOfRangeError. A chunk landing on an already-filled slot is a
// silent duplicate: it is dropped without error and the returned state is
// always Partial in that case, regardless of whether the set is otherwise
// complete (a duplicate after completion is never observed by the caller,
// since the set is removed from the table on completion).
func (cs *ChunkSet) Accept(c wire.Chunk) (State, error) {
	return cs.install(c)
}

func (cs *ChunkSet) install(c wire.Chunk) (State, error) {
	if c.SequenceNumber < 1 {
		return Partial, gelferrors.NewSequenceOutOfRange("chunkset.accept", c.SequenceNumber, c.SequenceCount)
	}
	i := int(c.SequenceNumber) - 1
	if i >= len(cs.slots) {
		return Partial, gelferrors.NewSequenceOutOfRange("chunkset.accept", c.SequenceNumber, c.SequenceCount)
	}
	if cs.slots[i] != nil {
		// Duplicate fragment: policy is silent drop, matching the lax
		// behavior of other GELF libraries. State unchanged.
		return Partial, nil
	}
	chunkCopy := c
	cs.slots[i] = &chunkCopy
	cs.rcvCount++
	if cs.rcvCount == len(cs.slots) {
		return Complete, nil
	}
	return Partial, nil
}

// ExpiresIn returns the remaining duration until this set's deadline
// (firstArrival + ttl). The result may be negative, which the reaper treats
// as "expire now".
func (cs *ChunkSet) ExpiresIn() time.Duration {
	return time.Until(cs.firstArrival.Add(cs.ttl))
}

// Deadline returns the absolute expiry time, used by the reaper's eviction
// queue.
func (cs *ChunkSet) Deadline() time.Time {
	return cs.firstArrival.Add(cs.ttl)
}

// Unpack concatenates payloads in slot order and decompresses/validates the
// result via decompress.Unpack. Calling Unpack before every slot is filled
// is a programming error in the caller (the accumulator never does this);
// it returns an error rather than panicking.
func (cs *ChunkSet) Unpack() (string, error) {
	if cs.rcvCount != len(cs.slots) {
		return "", gelferrors.NewChunkTooShort("chunkset.unpack", cs.rcvCount)
	}
	total := 0
	for _, s := range cs.slots {
		total += len(s.Payload)
	}
	buf := make([]byte, 0, total)
	for _, s := range cs.slots {
		buf = append(buf, s.Payload...)
	}
	return decompress.Unpack(buf)
}

// RcvCount reports the number of filled slots, for tests and diagnostics.
func (cs *ChunkSet) RcvCount() int { return cs.rcvCount }

// SlotCount reports the total number of slots (SequenceCount of the first
// fragment), for tests and diagnostics.
func (cs *ChunkSet) SlotCount() int { return len(cs.slots) }

// ID returns the GELF message id this set is reassembling, taken from
// whichever slot is filled first (every fragment of a set shares one id by
// construction — the accumulator keys its table on it).
func (cs *ChunkSet) ID() wire.MessageID {
	for _, s := range cs.slots {
		if s != nil {
			return s.ID
		}
	}
	return wire.MessageID{}
}
