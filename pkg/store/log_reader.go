package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/ssargent/canvaslog/pkg/codec"
	"github.com/ssargent/canvaslog/pkg/metrics"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// LogReader provides sequential access to the frames of a canvas log.
type LogReader struct {
	file    *os.File
	zr      *zstd.Decoder // Set when reading an archive
	reader  *bufio.Reader
	codec   *codec.RecordCodec
	metrics *metrics.Metrics
	config  LogReaderConfig
	offset  int64
	empty   bool
	broken  error // Sticky framing error
	header  [FrameHeaderSize]byte
}

// NewLogReader opens the log at config.FilePath. Archives written by
// Archive are detected and decompressed on the fly. An empty file reads
// as an empty log.
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	config.MaxPayloadSize = maxPayload(config.MaxPayloadSize)

	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	r := &LogReader{
		file:    file,
		reader:  bufio.NewReader(file),
		codec:   codec.NewRecordCodec(),
		metrics: config.Metrics,
		config:  config,
	}

	if magic, _ := r.reader.Peek(len(zstdMagic)); bytes.Equal(magic, zstdMagic) {
		zr, err := zstd.NewReader(r.reader)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		r.zr = zr
		r.reader = bufio.NewReader(zr)
	}

	header := make([]byte, FileHeaderSize)
	if _, err := io.ReadFull(r.reader, header); err != nil {
		switch {
		case err == io.EOF:
			r.empty = true
			return r, nil
		case err == io.ErrUnexpectedEOF:
			r.Close()
			return nil, fmt.Errorf("%w: short file header", ErrCorruption)
		default:
			r.Close()
			return nil, err
		}
	}
	if err := checkFileHeader(header); err != nil {
		r.Close()
		return nil, err
	}
	r.offset = FileHeaderSize

	if config.StartOffset > FileHeaderSize {
		if err := r.skipTo(config.StartOffset); err != nil {
			r.Close()
			return nil, err
		}
	}

	return r, nil
}

func (r *LogReader) skipTo(offset int64) error {
	if r.zr == nil {
		return r.Seek(offset)
	}
	if offset < r.offset {
		return ErrSeekCompressed
	}
	n, err := io.CopyN(io.Discard, r.reader, offset-r.offset)
	r.offset += n
	if err == io.EOF {
		return nil
	}
	return err
}

// ReadNext reads the frame at the current offset. It returns io.EOF at a
// clean end of log and ErrCorruption for a torn or checksum-failed frame;
// after corruption every call returns the same error. A frame that is
// intact but rejected by the codec yields the entry without a record and
// the codec error, and the reader moves past it.
func (r *LogReader) ReadNext() (Entry, error) {
	if r.broken != nil {
		return Entry{}, r.broken
	}
	if r.empty {
		return Entry{}, io.EOF
	}

	if _, err := io.ReadFull(r.reader, r.header[:]); err != nil {
		if err == io.EOF {
			return Entry{}, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return Entry{}, r.corrupt("torn frame header")
		}
		return Entry{}, err
	}

	h := parseFrameHeader(r.header[:])
	if int64(h.length) > int64(r.config.MaxPayloadSize) {
		return Entry{}, r.corrupt(fmt.Sprintf("payload length %d exceeds limit", h.length))
	}

	payload := make([]byte, h.length)
	if _, err := io.ReadFull(r.reader, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Entry{}, r.corrupt("torn payload")
		}
		return Entry{}, err
	}

	if frameChecksum(r.header[:], payload) != h.crc {
		return Entry{}, r.corrupt("checksum mismatch")
	}

	entry := Entry{Offset: r.offset, Tag: h.tag, Size: h.length}
	r.offset += FrameHeaderSize + int64(h.length)

	rec, err := r.codec.Decode(h.tag, payload)
	if err != nil {
		r.metrics.RecordCodecError(metrics.OperationDecode, err)
		return entry, fmt.Errorf("frame at offset %d: %w", entry.Offset, err)
	}
	entry.Record = rec
	r.metrics.RecordRead(h.tag)

	return entry, nil
}

func (r *LogReader) corrupt(reason string) error {
	r.metrics.RecordCorruption()
	r.broken = fmt.Errorf("%w at offset %d: %s", ErrCorruption, r.offset, reason)
	return r.broken
}

// Seek sets the read offset to the start of a frame. Archives cannot seek.
func (r *LogReader) Seek(offset int64) error {
	if r.zr != nil {
		return ErrSeekCompressed
	}
	if r.empty {
		return io.EOF
	}
	if offset < FileHeaderSize {
		return fmt.Errorf("offset %d is inside the file header", offset)
	}
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader.Reset(r.file)
	r.offset = offset
	r.broken = nil
	return nil
}

// Offset returns the offset of the next frame to be read. After
// corruption it is the offset of the damaged frame.
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Compressed reports whether the reader is decoding an archive.
func (r *LogReader) Compressed() bool {
	return r.zr != nil
}

// Iterator returns a streaming iterator over entries. It stops at the
// first error of any kind.
func (r *LogReader) Iterator() RecordIterator {
	return &logRecordIterator{reader: r}
}

// Close closes the log reader
func (r *LogReader) Close() error {
	if r.zr != nil {
		r.zr.Close()
	}
	return r.file.Close()
}

type logRecordIterator struct {
	reader *LogReader
	entry  Entry
	err    error
}

func (it *logRecordIterator) Next() bool {
	if it.err != nil {
		return false
	}
	entry, err := it.reader.ReadNext()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}
	it.entry = entry
	return true
}

func (it *logRecordIterator) Entry() Entry {
	return it.entry
}

// Err returns the error that stopped iteration, or nil at a clean end.
func (it *logRecordIterator) Err() error {
	return it.err
}

func (it *logRecordIterator) Close() error {
	// The underlying reader is owned by the caller
	return nil
}
