// Package wire implements the GELF datagram classifier and chunk header
// parser: the binary layer that turns a raw UDP datagram into either a
// complete compressed/raw payload or a single chunk fragment.
package wire

import (
	"time"

	gelferrors "github.com/alxayo/gelf-receiver/internal/errors"
)

const (
	// ChunkMagicByte0 and ChunkMagicByte1 are the two leading bytes
	// identifying a GELF chunk datagram.
	ChunkMagicByte0 = 0x1e
	ChunkMagicByte1 = 0x0f

	// GzipMagicByte0 and GzipMagicByte1 are the two leading bytes of a gzip
	// member.
	GzipMagicByte0 = 0x1f
	GzipMagicByte1 = 0x8b

	// ZlibMagicByte0 is the zlib CMF byte this receiver recognizes (deflate,
	// 32K window) — the FLG byte is validated separately via the FCHECK
	// congruence so every zlib compression level is accepted.
	ZlibMagicByte0 = 0x78

	// ChunkHeaderSize is the fixed GELF chunk header: 2 magic + 8 id + 1
	// sequence_number + 1 sequence_count.
	ChunkHeaderSize = 12

	// MaxDatagramSize is the largest chunk datagram this receiver expects:
	// 12-byte header + 1420-byte body.
	MaxDatagramSize = 1432

	// MaxChunkBody is the body budget within MaxDatagramSize.
	MaxChunkBody = MaxDatagramSize - ChunkHeaderSize

	// DefaultTTL is the default lifetime of a partial ChunkSet, measured
	// from its first fragment's arrival.
	DefaultTTL = 5 * time.Second
)

// MessageID is the opaque 8-byte GELF chunk identifier. Its bytes carry no
// meaning beyond sender-assigned uniqueness.
type MessageID [8]byte

// Chunk is one GELF fragment parsed from a datagram.
type Chunk struct {
	ID MessageID
	// SequenceNumber is the raw 1-indexed wire value (1..SequenceCount).
	// ChunkSet.Accept converts it to a 0-indexed slot.
	SequenceNumber uint8
	SequenceCount  uint8
	Payload        []byte
	Arrival        time.Time
}

// ParseChunk parses a single GELF chunk header and payload from a datagram.
// It fails with ChunkTooShortError if len(b) < ChunkHeaderSize, or if the
// chunk declares SequenceCount == 0 (no slot exists to fill). It does NOT
// validate SequenceNumber < SequenceCount; that check belongs to
// chunkset.ChunkSet.Accept.
func ParseChunk(b []byte) (Chunk, error) {
	if len(b) < ChunkHeaderSize {
		return Chunk{}, gelferrors.NewChunkTooShort("wire.parse_chunk", len(b))
	}
	var id MessageID
	copy(id[:], b[2:10])
	seqCount := b[11]
	if seqCount == 0 {
		return Chunk{}, gelferrors.NewChunkTooShort("wire.parse_chunk", len(b))
	}
	payload := make([]byte, len(b)-ChunkHeaderSize)
	copy(payload, b[ChunkHeaderSize:])
	return Chunk{
		ID:             id,
		SequenceNumber: b[10],
		SequenceCount:  seqCount,
		Payload:        payload,
		Arrival:        time.Now(),
	}, nil
}

// Kind tags the result of Classify.
type Kind int

const (
	// KindChunk indicates a chunk-magic datagram; the caller should call
	// ParseChunk on the same bytes and forward to the accumulator.
	KindChunk Kind = iota
	// KindGzip, KindZlib, and KindRaw indicate a single-datagram message;
	// the caller should pass the bytes to decompress.Unpack.
	KindGzip
	KindZlib
	KindRaw
)

// Classify inspects the leading bytes of a datagram and reports how it
// should be handled: as a chunk fragment, or as a single-datagram payload
// in one of three encodings. It fails with PacketTooShortError if len(b) < 2.
func Classify(b []byte) (Kind, error) {
	if len(b) < 2 {
		return 0, gelferrors.NewPacketTooShort("wire.classify", len(b))
	}
	switch {
	case b[0] == ChunkMagicByte0 && b[1] == ChunkMagicByte1:
		return KindChunk, nil
	case b[0] == GzipMagicByte0 && b[1] == GzipMagicByte1:
		return KindGzip, nil
	case b[0] == ZlibMagicByte0 && isZlibFlag(b[0], b[1]):
		return KindZlib, nil
	default:
		return KindRaw, nil
	}
}

// isZlibFlag implements the full RFC 1950 FCHECK congruence: (CMF*256 + FLG)
// must be a multiple of 31. Accepting the congruence rather than a fixed
// byte pair means every zlib compression level is recognized, not only the
// default.
func isZlibFlag(cmf, flg byte) bool {
	return (uint16(cmf)*256+uint16(flg))%31 == 0
}
