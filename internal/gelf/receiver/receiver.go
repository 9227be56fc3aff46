// Package receiver wires the GELF wire classifier, decompressor, and chunk
// accumulator to a real UDP socket and a caller-supplied handler.
package receiver

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alxayo/gelf-receiver/internal/bufpool"
	gelferrors "github.com/alxayo/gelf-receiver/internal/errors"
	"github.com/alxayo/gelf-receiver/internal/gelf/accumulator"
	"github.com/alxayo/gelf-receiver/internal/gelf/chunkset"
	"github.com/alxayo/gelf-receiver/internal/gelf/decompress"
	"github.com/alxayo/gelf-receiver/internal/gelf/wire"
	"github.com/alxayo/gelf-receiver/internal/logger"
)

// Handler receives one fully reassembled, decompressed GELF message. It
// must be safe to call concurrently: the receiver dispatches it from a
// bounded worker pool, potentially for several datagrams at once.
type Handler func(msg string)

// Option configures a Receiver at construction time.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	maxDatagramSize int
	workers         int
	ttl             time.Duration
	registerer      prometheus.Registerer
}

func defaultConfig() config {
	return config{
		logger:          logger.Logger(),
		maxDatagramSize: wire.MaxDatagramSize,
		workers:         16,
		ttl:             wire.DefaultTTL,
	}
}

// WithLogger injects a logger for per-datagram error reporting.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithMaxDatagramSize overrides the read buffer size (default 1432, the
// canonical chunk datagram ceiling); set higher to tolerate non-default
// MTUs.
func WithMaxDatagramSize(n int) Option { return func(c *config) { c.maxDatagramSize = n } }

// WithWorkers sets the handler dispatch pool size (default 16).
func WithWorkers(n int) Option { return func(c *config) { c.workers = n } }

// WithTTL overrides the accumulator's default 5-second ChunkSet lifetime.
func WithTTL(d time.Duration) Option { return func(c *config) { c.ttl = d } }

// WithPrometheus registers a collector exposing Stats/AccumulatorStats on
// reg. The core has no dependency on Prometheus unless this option is
// supplied.
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(c *config) { c.registerer = reg }
}

// Receiver binds a UDP socket, classifies and reassembles incoming
// datagrams, and dispatches completed messages to handler on a bounded
// worker pool.
type Receiver struct {
	handler Handler
	logger  *slog.Logger

	maxDatagramSize int
	acc             *accumulator.Accumulator
	pool            *dispatchPool

	conn    net.PacketConn
	mu      sync.Mutex
	closing bool
	readWg  sync.WaitGroup

	stats statsCounters
}

// New constructs a Receiver. It does not bind a socket; call
// ListenAndServe to start serving.
func New(handler Handler, opts ...Option) *Receiver {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	r := &Receiver{
		handler:         handler,
		logger:          cfg.logger,
		maxDatagramSize: cfg.maxDatagramSize,
		acc:             accumulator.New(accumulator.WithTTL(cfg.ttl), accumulator.WithLogger(cfg.logger)),
		pool:            newDispatchPool(cfg.workers, cfg.logger),
	}
	if cfg.registerer != nil {
		_ = cfg.registerer.Register(newCollector(r))
	}
	return r
}

// ListenAndServe binds addr as a UDP socket and runs the read loop until
// Close is called or the socket returns a fatal error.
func (r *Receiver) ListenAndServe(addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("gelf receiver: listen %s: %w", addr, err)
	}
	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	r.logger.Info("gelf receiver listening", "addr", conn.LocalAddr().String())
	r.readWg.Add(1)
	defer r.readWg.Done()
	return r.readLoop(conn)
}

func (r *Receiver) readLoop(conn net.PacketConn) error {
	for {
		buf := bufpool.Get(r.maxDatagramSize)
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			bufpool.Put(buf)
			r.mu.Lock()
			closing := r.closing
			r.mu.Unlock()
			if closing || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("gelf receiver: read: %w", err)
		}

		r.stats.datagramsReceived.Add(1)
		// handleDatagram never retains buf beyond this call: wire.ParseChunk
		// and decompress.Unpack each copy out what they need before
		// returning, so the buffer is safe to return to the pool here.
		r.handleDatagram(buf[:n], peer)
		bufpool.Put(buf)
	}
}

func (r *Receiver) handleDatagram(datagram []byte, peer net.Addr) {
	kind, err := wire.Classify(datagram)
	if err != nil {
		r.stats.classifyErrors.Add(1)
		r.logShort("classify", err, peer)
		return
	}

	if kind != wire.KindChunk {
		msg, err := decompress.Unpack(datagram)
		if err != nil {
			r.recordUnpackError(err)
			r.logShort("decompress", err, peer)
			return
		}
		r.deliver(msg)
		return
	}

	c, err := wire.ParseChunk(datagram)
	if err != nil {
		r.stats.chunkErrors.Add(1)
		r.logShort("parse_chunk", err, peer)
		return
	}

	cs, err := r.acc.Accept(c)
	if err != nil {
		r.recordAcceptError(err)
		r.logShortChunk("accept", err, peer, c.ID)
		return
	}
	if cs == nil {
		return
	}
	r.completeChunkSet(cs, peer)
}

func (r *Receiver) completeChunkSet(cs *chunkset.ChunkSet, peer net.Addr) {
	msg, err := cs.Unpack()
	if err != nil {
		r.recordUnpackError(err)
		r.logShortChunk("unpack", err, peer, cs.ID())
		return
	}
	r.deliver(msg)
}

func (r *Receiver) deliver(msg string) {
	r.stats.messagesDelivered.Add(1)
	r.pool.dispatch(func() { r.handler(msg) })
}

func (r *Receiver) recordUnpackError(err error) {
	switch gelferrors.Classify(err) {
	case gelferrors.KindDecompression:
		r.stats.decompressErrors.Add(1)
	case gelferrors.KindInvalidUTF8:
		r.stats.invalidUTF8Errors.Add(1)
	default:
		r.stats.classifyErrors.Add(1)
	}
}

func (r *Receiver) recordAcceptError(err error) {
	if gelferrors.Classify(err) == gelferrors.KindSequenceOutOfRange {
		r.stats.chunkErrors.Add(1)
	}
}

// logShort logs a per-datagram failure at Warn with a fresh correlation id,
// then continues the read loop: a codec or classification error on one
// datagram must never terminate the listener or affect any other
// in-flight message.
func (r *Receiver) logShort(op string, err error, peer net.Addr) {
	id := uuid.NewString()
	l := logger.WithCorrelationID(logger.WithPeer(r.logger, peer), id)
	l.Warn("dropping malformed gelf datagram", "op", op, "error", err)
}

// logShortChunk is logShort plus the GELF message id, for failures on a
// datagram already known to belong to a chunked message — correlates log
// lines for one message's fragments without relying on peer address alone.
func (r *Receiver) logShortChunk(op string, err error, peer net.Addr, messageID wire.MessageID) {
	id := uuid.NewString()
	l := logger.WithMessageID(logger.WithCorrelationID(logger.WithPeer(r.logger, peer), id), messageID)
	l.Warn("dropping malformed gelf datagram", "op", op, "error", err)
}

// Close stops the read loop, closes the socket, drains the dispatch pool,
// and closes the accumulator (which stops and joins its reaper).
func (r *Receiver) Close() error {
	r.mu.Lock()
	r.closing = true
	conn := r.conn
	r.mu.Unlock()

	var closeErr error
	if conn != nil {
		closeErr = conn.Close()
	}
	r.readWg.Wait()
	r.pool.close()
	r.acc.Close()
	return closeErr
}

// Stats returns a snapshot of receiver-level counters.
func (r *Receiver) Stats() Stats {
	s := r.stats.snapshot()
	s.ActiveDispatchWorkers = r.pool.activeCount()
	return s
}

// AccumulatorStats returns a snapshot of the underlying accumulator's
// chunk-reassembly counters.
func (r *Receiver) AccumulatorStats() accumulator.Stats { return r.acc.Stats() }
