// Package accumulator implements the ChunkAccumulator: a keyed table of
// in-flight ChunkSets, an accept path that mutates it under a single mutex,
// and a background reaper goroutine that enforces TTL-based eviction.
package accumulator

import (
	"log/slog"
	"sync"
	"time"

	gelferrors "github.com/alxayo/gelf-receiver/internal/errors"
	"github.com/alxayo/gelf-receiver/internal/gelf/chunkset"
	"github.com/alxayo/gelf-receiver/internal/gelf/wire"
	"github.com/alxayo/gelf-receiver/internal/logger"
)

// Option configures an Accumulator at construction time.
type Option func(*config)

type config struct {
	ttl    time.Duration
	logger *slog.Logger
}

func defaultConfig() config {
	return config{ttl: wire.DefaultTTL, logger: logger.Logger()}
}

// WithTTL overrides the default 5-second ChunkSet lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *config) { c.ttl = d }
}

// WithLogger injects a logger for reaper eviction/diagnostic messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Accumulator owns the AccumulatorTable (a map from message id to ChunkSet)
// and the signal channel to its reaper. Exactly one mutex protects the
// table; the reaper is the table's only other mutator.
type Accumulator struct {
	mu    sync.Mutex
	table map[wire.MessageID]*chunkset.ChunkSet

	ttl    time.Duration
	logger *slog.Logger

	sigCh      chan reaperSignal
	closed     chan struct{} // closed when the reaper goroutine has returned
	reaperDone chan struct{} // closed after reaperPanic (if any) is recorded
	reaperPanic any
	closeOnce  sync.Once
	closeErr   error

	stats statsCounters
}

// New constructs an Accumulator and spawns its reaper goroutine.
func New(opts ...Option) *Accumulator {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	a := &Accumulator{
		table:      make(map[wire.MessageID]*chunkset.ChunkSet),
		ttl:        cfg.ttl,
		logger:     cfg.logger,
		sigCh:      make(chan reaperSignal, reaperChannelBuffer),
		closed:     make(chan struct{}),
		reaperDone: make(chan struct{}),
	}
	go a.runReaper()
	return a
}

// Accept feeds one chunk into the accumulator. It returns (nil, nil) when
// the owning message is still partial, (*chunkset.ChunkSet, nil) when this
// call completed the message — in which case the set has already been
// removed from the table — or (nil, err) on a parse/protocol error.
//
// Ordering contract: inserting a new ChunkSet into the table and signaling
// its eviction entry to the reaper happen in that order; the insert is made
// under the table lock and the signal is sent after the lock is released, so
// the reaper only ever observes an eviction entry for a key already present
// (or already removed again).
func (a *Accumulator) Accept(c wire.Chunk) (*chunkset.ChunkSet, error) {
	a.mu.Lock()

	if existing, ok := a.table[c.ID]; ok {
		before := existing.RcvCount()
		state, err := existing.Accept(c)
		if err != nil {
			a.mu.Unlock()
			a.stats.sequenceErrors.Add(1)
			return nil, err
		}
		a.stats.chunksAccepted.Add(1)
		if state == chunkset.Complete {
			delete(a.table, c.ID)
			a.mu.Unlock()
			a.stats.messagesCompleted.Add(1)
			return existing, nil
		}
		if existing.RcvCount() == before {
			a.stats.duplicatesDropped.Add(1)
		}
		a.mu.Unlock()
		return nil, nil
	}

	cs, state, err := chunkset.New(c, a.ttl)
	if err != nil {
		a.mu.Unlock()
		a.stats.sequenceErrors.Add(1)
		return nil, err
	}
	a.stats.chunksAccepted.Add(1)

	if state == chunkset.Complete {
		// Degenerate sequence_count == 1: never inserted into the table.
		a.mu.Unlock()
		a.stats.messagesCompleted.Add(1)
		return cs, nil
	}

	a.table[c.ID] = cs
	deadline := cs.Deadline()
	a.mu.Unlock()

	if err := a.signalEviction(c.ID, deadline); err != nil {
		a.stats.reaperUnavailable.Add(1)
		return nil, err
	}
	return nil, nil
}

func (a *Accumulator) signalEviction(id wire.MessageID, deadline time.Time) error {
	select {
	case a.sigCh <- reaperSignal{kind: signalEntry, id: id, deadline: deadline}:
		return nil
	case <-a.closed:
		return gelferrors.NewReaperUnavailable("accumulator.accept", nil)
	}
}

// Close stops the reaper (sends Quit, then joins) and releases the
// accumulator. If the reaper goroutine panicked, Close re-panics with the
// recovered value, mirroring the way a crashed thread's panic would
// surface at join.
func (a *Accumulator) Close() error {
	a.closeOnce.Do(func() {
		select {
		case a.sigCh <- reaperSignal{kind: signalQuit}:
		case <-a.closed:
		}
		<-a.reaperDone
	})
	if a.reaperPanic != nil {
		panic(a.reaperPanic)
	}
	return a.closeErr
}

// Stats returns a snapshot of the accumulator's counters.
func (a *Accumulator) Stats() Stats {
	return a.stats.snapshot()
}
