package wire

import (
	"testing"

	gelferrors "github.com/alxayo/gelf-receiver/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want Kind
	}{
		{"chunk magic", []byte{0x1e, 0x0f, 0x01}, KindChunk},
		{"gzip magic", []byte{0x1f, 0x8b, 0x08}, KindGzip},
		{"zlib default level", []byte{0x78, 0x9c}, KindZlib},
		{"zlib best speed", []byte{0x78, 0x01}, KindZlib},
		{"zlib best compression", []byte{0x78, 0xda}, KindZlib},
		{"raw json", []byte(`{"a":1}`), KindRaw},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Classify(tc.in)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestClassifyPacketTooShort(t *testing.T) {
	_, err := Classify([]byte{0x0f})
	if err == nil {
		t.Fatalf("expected error for 1-byte datagram")
	}
	if gelferrors.Classify(err) != gelferrors.KindPacketTooShort {
		t.Fatalf("expected KindPacketTooShort, got %v", gelferrors.Classify(err))
	}
}

func TestParseChunk(t *testing.T) {
	id := MessageID{1, 2, 3, 4, 5, 6, 7, 8}
	b := encodeChunk(id, 2, 3, []byte("hello"))
	c, err := ParseChunk(b)
	if err != nil {
		t.Fatalf("ParseChunk: %v", err)
	}
	if c.ID != id {
		t.Fatalf("id mismatch: %v", c.ID)
	}
	if c.SequenceNumber != 2 || c.SequenceCount != 3 {
		t.Fatalf("sequence mismatch: %d/%d", c.SequenceNumber, c.SequenceCount)
	}
	if string(c.Payload) != "hello" {
		t.Fatalf("payload mismatch: %q", c.Payload)
	}
}

func TestParseChunkTooShort(t *testing.T) {
	_, err := ParseChunk([]byte{0x1e, 0x0f, 0, 0, 0, 0, 0, 0, 0, 0, 1})
	if err == nil {
		t.Fatalf("expected ChunkTooShort error")
	}
	if gelferrors.Classify(err) != gelferrors.KindChunkTooShort {
		t.Fatalf("expected KindChunkTooShort, got %v", gelferrors.Classify(err))
	}
}

func TestParseChunkZeroSequenceCount(t *testing.T) {
	id := MessageID{1, 2, 3, 4, 5, 6, 7, 8}
	b := encodeChunk(id, 1, 0, []byte("x"))
	_, err := ParseChunk(b)
	if err == nil {
		t.Fatalf("expected ChunkTooShort for sequence_count == 0")
	}
	if gelferrors.Classify(err) != gelferrors.KindChunkTooShort {
		t.Fatalf("expected KindChunkTooShort, got %v", gelferrors.Classify(err))
	}
}

func TestParseChunkDoesNotValidateSequenceNumber(t *testing.T) {
	// sequence_number >= sequence_count is accepted at parse time;
	// SequenceOutOfRange is raised only by chunkset.Accept.
	id := MessageID{1, 1, 1, 1, 1, 1, 1, 1}
	b := encodeChunk(id, 9, 2, []byte("x"))
	c, err := ParseChunk(b)
	if err != nil {
		t.Fatalf("ParseChunk: %v", err)
	}
	if c.SequenceNumber != 9 {
		t.Fatalf("expected raw sequence_number preserved, got %d", c.SequenceNumber)
	}
}
