package wire

// Test-only helpers that construct realistic chunk wire bytes, mirroring the
// encode side of the reference Rust sender example so this package's tests
// don't need a second binary to produce fixtures. Being in a _test.go file,
// they are not visible to other packages' tests.

// encodeChunk builds a single GELF chunk datagram: 2-byte magic, 8-byte id,
// 1-byte sequence_number, 1-byte sequence_count, then payload.
func encodeChunk(id MessageID, sequenceNumber, sequenceCount uint8, payload []byte) []byte {
	b := make([]byte, 0, ChunkHeaderSize+len(payload))
	b = append(b, ChunkMagicByte0, ChunkMagicByte1)
	b = append(b, id[:]...)
	b = append(b, sequenceNumber, sequenceCount)
	b = append(b, payload...)
	return b
}

// splitIntoChunks splits payload into chunks of at most chunkSize bytes each
// and encodes each as a full chunk datagram, mirroring the reference
// sender's fragmentation logic.
func splitIntoChunks(id MessageID, payload []byte, chunkSize int) [][]byte {
	count := (len(payload) + chunkSize - 1) / chunkSize
	if count == 0 {
		count = 1
	}
	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		out = append(out, encodeChunk(id, uint8(i+1), uint8(count), payload[start:end]))
	}
	return out
}
