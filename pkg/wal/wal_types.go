package wal

import "errors"

// RecordKind tags what a journal entry carries
type RecordKind uint8

const (
	KindResults RecordKind = iota + 1
	KindCommunities
)

// String returns the kind's name
func (k RecordKind) String() string {
	switch k {
	case KindResults:
		return "results"
	case KindCommunities:
		return "communities"
	default:
		return "unknown"
	}
}

// ErrChecksumMismatch marks an entry whose stored CRC does not match its body
var ErrChecksumMismatch = errors.New("journal checksum mismatch")

// Entry is one framed journal record. Data is uncompressed once read back.
type Entry struct {
	Seq       uint64 // 1-based, monotonically increasing within a file
	Kind      RecordKind
	Data      []byte
	Checksum  uint32 // CRC32 (IEEE) of the compressed body
	Timestamp int64  // unix seconds

	size int64 // framed length on disk
}

// Stats holds compression statistics
type Stats struct {
	TotalWrites       uint64
	BytesUncompressed uint64
	BytesCompressed   uint64
	CompressionRatio  float64 // e.g., 0.75 = 75% smaller

	// TornBytes is the length of a partial final record discarded when
	// the journal was opened.
	TornBytes uint64
}
