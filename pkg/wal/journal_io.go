package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/golang/snappy"
)

// maxRecordSize bounds a single compressed body so a corrupt length prefix
// cannot trigger a huge allocation.
const maxRecordSize = 256 << 20

// entryOverhead is the framed size of an entry minus its body
const entryOverhead = 8 + 1 + 4 + 4 + 8

// writeEntry frames one entry:
// [Seq:8][Kind:1][DataLen:4][Data:N][Checksum:4][Timestamp:8], big endian.
func writeEntry(w *bufio.Writer, entry *Entry) error {
	if err := binary.Write(w, binary.BigEndian, entry.Seq); err != nil {
		return err
	}
	if err := w.WriteByte(byte(entry.Kind)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(entry.Data))); err != nil {
		return err
	}
	if _, err := w.Write(entry.Data); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, entry.Checksum); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, entry.Timestamp)
}

// readEntry reads one framed entry. io.EOF means a clean end of input; any
// partial record yields io.ErrUnexpectedEOF.
func readEntry(r *bufio.Reader) (*Entry, error) {
	entry := &Entry{}

	if err := binary.Read(r, binary.BigEndian, &entry.Seq); err != nil {
		return nil, err
	}

	kind, err := r.ReadByte()
	if err != nil {
		return nil, unexpected(err)
	}
	entry.Kind = RecordKind(kind)

	var dataLen uint32
	if err := binary.Read(r, binary.BigEndian, &dataLen); err != nil {
		return nil, unexpected(err)
	}
	if dataLen > maxRecordSize {
		return nil, fmt.Errorf("entry %d: record size %d exceeds limit", entry.Seq, dataLen)
	}

	compressed := make([]byte, dataLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, unexpected(err)
	}

	if err := binary.Read(r, binary.BigEndian, &entry.Checksum); err != nil {
		return nil, unexpected(err)
	}
	if crc32.ChecksumIEEE(compressed) != entry.Checksum {
		return nil, fmt.Errorf("entry %d: %w", entry.Seq, ErrChecksumMismatch)
	}

	if err := binary.Read(r, binary.BigEndian, &entry.Timestamp); err != nil {
		return nil, unexpected(err)
	}

	entry.size = int64(entryOverhead) + int64(dataLen)

	entry.Data, err = snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("entry %d: failed to decompress: %w", entry.Seq, err)
	}
	return entry, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ReadEntries decodes entries from r until a clean end of input
func ReadEntries(r io.Reader) ([]*Entry, error) {
	reader := bufio.NewReader(r)
	entries := make([]*Entry, 0)

	for {
		entry, err := readEntry(reader)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}

func readFile(path string) ([]*Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	return ReadEntries(file)
}
