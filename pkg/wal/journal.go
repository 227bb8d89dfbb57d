// Package wal implements an append-only, snappy-compressed journal of framed
// records. Each record is checksummed so a damaged file is detected on read.
package wal

import (
	"bufio"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
)

// Journal is a single-file append-only log. It is safe for concurrent use.
type Journal struct {
	file   *os.File
	writer *bufio.Writer
	path   string
	seq    uint64
	now    func() time.Time
	mu     sync.Mutex
	noSync bool

	// Statistics
	totalWrites       uint64
	bytesUncompressed uint64
	bytesCompressed   uint64
	tornBytes         uint64
}

// Options tunes a Journal
type Options struct {
	// NoSync skips fsync after each append. Entries still reach the OS on
	// every append.
	NoSync bool

	// Now stamps entries; defaults to time.Now.
	Now func() time.Time
}

// Open opens or creates the journal at path and recovers the last sequence
// number from its contents. A partial final record, left by a crash during
// an append, is cut off so new records follow the last intact one.
func Open(path string, opts Options) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	j := &Journal{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
		now:    opts.Now,
		noSync: opts.NoSync,
	}
	if j.now == nil {
		j.now = time.Now
	}

	if err := j.recoverSeq(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to recover sequence: %w", err)
	}

	return j, nil
}

// Append compresses data and writes it as one record, returning its sequence
// number. The record is flushed (and synced unless NoSync) before returning.
func (j *Journal) Append(kind RecordKind, data []byte) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	compressed := snappy.Encode(nil, data)
	entry := Entry{
		Seq:       j.seq + 1,
		Kind:      kind,
		Data:      compressed,
		Checksum:  crc32.ChecksumIEEE(compressed),
		Timestamp: j.now().Unix(),
	}

	if err := writeEntry(j.writer, &entry); err != nil {
		return 0, fmt.Errorf("failed to write journal entry: %w", err)
	}
	if err := j.writer.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush journal: %w", err)
	}
	if !j.noSync {
		if err := j.file.Sync(); err != nil {
			return 0, fmt.Errorf("failed to sync journal: %w", err)
		}
	}

	j.seq = entry.Seq
	j.totalWrites++
	j.bytesUncompressed += uint64(len(data))
	j.bytesCompressed += uint64(len(compressed))

	return entry.Seq, nil
}

// ReadAll reads and decompresses every entry in file order
func (j *Journal) ReadAll() ([]*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return nil, err
	}
	return readFile(j.path)
}

// Replay calls handler for each entry in order, stopping at the first error
func (j *Journal) Replay(handler func(*Entry) error) error {
	entries, err := j.ReadAll()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := handler(entry); err != nil {
			return err
		}
	}
	return nil
}

// Truncate discards every entry and restarts sequence numbers at 1
func (j *Journal) Truncate() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	if err := j.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate journal: %w", err)
	}
	j.writer.Reset(j.file)
	j.seq = 0
	return nil
}

// Seq returns the sequence number of the last appended entry
func (j *Journal) Seq() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

// Path returns the journal file path
func (j *Journal) Path() string {
	return j.path
}

// Stats returns compression statistics for writes made through this handle
func (j *Journal) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()

	ratio := 0.0
	if j.bytesUncompressed > 0 {
		ratio = 1.0 - (float64(j.bytesCompressed) / float64(j.bytesUncompressed))
	}

	return Stats{
		TotalWrites:       j.totalWrites,
		BytesUncompressed: j.bytesUncompressed,
		BytesCompressed:   j.bytesCompressed,
		CompressionRatio:  ratio,
		TornBytes:         j.tornBytes,
	}
}

// Close flushes, syncs and closes the file
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	if err := j.file.Sync(); err != nil {
		return err
	}
	return j.file.Close()
}

func (j *Journal) recoverSeq() error {
	entries, err := readFile(j.path)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	if len(entries) > 0 {
		j.seq = entries[len(entries)-1].Seq
	}
	if err == nil {
		return nil
	}

	var intact int64
	for _, entry := range entries {
		intact += entry.size
	}
	info, statErr := j.file.Stat()
	if statErr != nil {
		return statErr
	}
	if err := j.file.Truncate(intact); err != nil {
		return fmt.Errorf("failed to cut torn record: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return err
	}
	j.tornBytes = uint64(info.Size() - intact)
	return nil
}
