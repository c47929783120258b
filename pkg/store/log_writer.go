package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
	"github.com/ssargent/canvaslog/pkg/logging"
	"github.com/ssargent/canvaslog/pkg/metrics"
)

// LogWriter handles append-only writes to a canvas log file
type LogWriter struct {
	file       *os.File
	writer     *bufio.Writer
	codec      *codec.RecordCodec
	fsyncTimer *time.Timer
	config     LogWriterConfig
	logger     *zap.Logger
	metrics    *metrics.Metrics
	mutex      sync.Mutex
	offset     int64  // Current write offset
	frame      []byte // Reused frame buffer
}

// NewLogWriter opens or creates the log at config.FilePath. A new file gets
// the canvas log header; an existing one must carry a matching header.
func NewLogWriter(config LogWriterConfig) (*LogWriter, error) {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	config.MaxPayloadSize = maxPayload(config.MaxPayloadSize)

	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	size := stat.Size()
	if size == 0 {
		if _, err := file.Write(fileHeader()); err != nil {
			file.Close()
			return nil, err
		}
		if err := file.Sync(); err != nil {
			file.Close()
			return nil, err
		}
		size = FileHeaderSize
	} else {
		header := make([]byte, FileHeaderSize)
		if _, err := io.ReadFull(file, header); err != nil {
			file.Close()
			return nil, fmt.Errorf("%w: short file header", ErrCorruption)
		}
		if err := checkFileHeader(header); err != nil {
			file.Close()
			return nil, err
		}
	}

	// Seek to end for append behavior
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		file.Close()
		return nil, err
	}

	writer := &LogWriter{
		file:    file,
		writer:  bufio.NewWriterSize(file, config.BufferSize),
		codec:   codec.NewRecordCodec(),
		config:  config,
		logger:  logger.With(zap.String("log", config.FilePath)),
		metrics: config.Metrics,
		offset:  size,
	}

	// Set up fsync timer if interval is configured
	if config.FsyncInterval > 0 {
		writer.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			writer.mutex.Lock()
			defer writer.mutex.Unlock()
			if err := writer.sync(); err != nil {
				writer.logger.Warn("background fsync failed", zap.Error(err))
			}
		})
	}

	return writer, nil
}

// Append frames rec and writes it to the log, returning the frame offset.
// Nothing is written when rec cannot be encoded.
func (w *LogWriter) Append(rec canvas.Record) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	var header [FrameHeaderSize]byte
	frame, err := w.codec.Append(append(w.frame[:0], header[:]...), rec)
	if err != nil {
		w.metrics.RecordCodecError(metrics.OperationEncode, err)
		return 0, err
	}
	w.frame = frame

	if size := len(frame) - FrameHeaderSize; size > w.config.MaxPayloadSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, size)
	}
	putFrameHeader(frame, rec.Tag())

	// Write to buffer
	n, err := w.writer.Write(frame)
	if err != nil {
		return 0, err
	}

	// Calculate the offset where this frame starts
	frameOffset := w.offset
	w.offset += int64(n)

	w.metrics.RecordWrite(rec.Tag(), n)
	if ce := w.logger.Check(zap.DebugLevel, "record appended"); ce != nil {
		ce.Write(append(logging.Record(rec), zap.Int64("offset", frameOffset))...)
	}

	// Sync immediately if no fsync interval configured
	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	return frameOffset, nil
}

// AppendAll appends records in order, stopping at the first failure.
func (w *LogWriter) AppendAll(records ...canvas.Record) ([]int64, error) {
	offsets := make([]int64, 0, len(records))
	for i, rec := range records {
		off, err := w.Append(rec)
		if err != nil {
			return offsets, fmt.Errorf("record %d: %w", i, err)
		}
		offsets = append(offsets, off)
	}
	return offsets, nil
}

// Sync forces a fsync to disk
func (w *LogWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.sync()
}

func (w *LogWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close closes the log writer and ensures all data is synced
func (w *LogWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if err := w.sync(); err != nil {
		w.file.Close()
		return err
	}

	return w.file.Close()
}

// Size returns the current size of the log file, buffered bytes included
func (w *LogWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *LogWriter) Path() string {
	return w.config.FilePath
}
