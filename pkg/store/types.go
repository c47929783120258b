package store

import (
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/metrics"
)

const (
	// FileHeaderSize is the size of the "CNVS" magic plus the format version.
	FileHeaderSize = 6

	// FrameHeaderSize is tag (2) + payload length (4) + CRC32 (4).
	FrameHeaderSize = 10

	// DefaultMaxPayloadSize bounds a single payload when no limit is configured.
	DefaultMaxPayloadSize = 16 << 20

	// DefaultBufferSize is the write buffer size used when none is configured.
	DefaultBufferSize = 4096
)

var fileMagic = [4]byte{'C', 'N', 'V', 'S'}

// Entry is one frame read back from a log.
type Entry struct {
	Offset int64         // Byte offset of the frame header
	Tag    canvas.Tag    // Tag from the frame header
	Size   uint32        // Payload length
	Record canvas.Record // Decoded record, nil if the codec rejected the payload
}

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath       string        // Path to the log file
	FsyncInterval  time.Duration // How often to fsync (0 = every write)
	BufferSize     int           // Write buffer size
	MaxPayloadSize int           // Largest payload accepted (0 = DefaultMaxPayloadSize)
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath       string // Path to the log file or a zstd archive of one
	StartOffset    int64  // Frame offset to start reading from (0 = first frame)
	MaxPayloadSize int    // Largest payload accepted (0 = DefaultMaxPayloadSize)
	Metrics        *metrics.Metrics
}

// RecordIterator provides streaming access to entries
type RecordIterator interface {
	Next() bool
	Entry() Entry
	Err() error
	Close() error
}

// RecoveryResult describes what Recover found and repaired.
type RecoveryResult struct {
	RecordsValidated int64 // Frames with a valid checksum
	RecordsInvalid   int64 // Valid frames the codec rejected
	BytesTruncated   int64 // Bytes cut from a torn tail
	FileSizeBefore   int64
	FileSizeAfter    int64
	RecoveryTime     time.Duration
}

// Errors
var (
	ErrCorruption      = &LogError{"data corruption detected"}
	ErrBadMagic        = &LogError{"not a canvas log"}
	ErrVersionMismatch = &LogError{"unsupported canvas log version"}
	ErrPayloadTooLarge = &LogError{"payload exceeds maximum size"}
	ErrSeekCompressed  = &LogError{"cannot seek in a compressed log"}
)

// LogError represents a canvas log error
type LogError struct {
	Message string
}

func (e *LogError) Error() string {
	return e.Message
}

func maxPayload(configured int) int {
	if configured <= 0 {
		return DefaultMaxPayloadSize
	}
	return configured
}
