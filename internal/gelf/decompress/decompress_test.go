package decompress

import (
	"bytes"
	"testing"

	kgzip "github.com/klauspost/compress/gzip"
	kzlib "github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{"message":"foo","host":"bar","_utf8":"✓"}`

func gzipEncode(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := kgzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zlibEncode(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := kzlib.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestUnpackRaw(t *testing.T) {
	t.Parallel()
	got, err := Unpack([]byte(samplePayload))
	require.NoError(t, err)
	require.Equal(t, samplePayload, got)
}

func TestUnpackGzipRoundTrip(t *testing.T) {
	t.Parallel()
	encoded := gzipEncode(t, samplePayload)
	got, err := Unpack(encoded)
	require.NoError(t, err)
	require.Equal(t, samplePayload, got)
}

func TestUnpackZlibRoundTrip(t *testing.T) {
	t.Parallel()
	encoded := zlibEncode(t, samplePayload)
	got, err := Unpack(encoded)
	require.NoError(t, err)
	require.Equal(t, samplePayload, got)
}

func TestUnpackZlibAllLevels(t *testing.T) {
	for level := kzlib.BestSpeed; level <= kzlib.BestCompression; level++ {
		level := level
		t.Run("", func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			w, err := kzlib.NewWriterLevel(&buf, level)
			require.NoError(t, err)
			_, err = w.Write([]byte(samplePayload))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			got, err := Unpack(buf.Bytes())
			require.NoError(t, err)
			require.Equal(t, samplePayload, got)
		})
	}
}

func TestUnpackInvalidUTF8(t *testing.T) {
	t.Parallel()
	bad := []byte{'{', 0xff, 0xfe, '}'}
	_, err := Unpack(bad)
	require.Error(t, err)
}

func TestUnpackGzipCorrupt(t *testing.T) {
	t.Parallel()
	encoded := gzipEncode(t, samplePayload)
	encoded[len(encoded)-1] ^= 0xff
	_, err := Unpack(encoded)
	require.Error(t, err)
}

func TestUnpackPacketTooShort(t *testing.T) {
	t.Parallel()
	_, err := Unpack([]byte{0x0f})
	require.Error(t, err)
}

func TestUnpackDoesNotRecurseIntoChunkMagic(t *testing.T) {
	t.Parallel()
	// The raw path must not special-case chunk magic bytes once handed to
	// Unpack directly (classification into the chunk path is the caller's
	// job, not decompress's); feeding chunk-magic-prefixed-but-not-chunked
	// bytes through gzip/zlib encoding must still round-trip.
	payload := string([]byte{0x1e, 0x0f}) + samplePayload
	encoded := gzipEncode(t, payload)
	got, err := Unpack(encoded)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
