package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ssargent/canvaslog/pkg/codec"
)

// Recover validates the log at path and truncates a torn or corrupted tail
// so the file ends on a frame boundary. Frames the codec rejects are intact
// and are kept. A missing file is not an error. Archives are refused.
func Recover(path string) (*RecoveryResult, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{RecoveryTime: time.Since(startTime)}, nil
		}
		return nil, err
	}

	result := &RecoveryResult{
		FileSizeBefore: fileInfo.Size(),
		FileSizeAfter:  fileInfo.Size(),
	}

	// No payload can be longer than the file holding it.
	reader, err := NewLogReader(LogReaderConfig{
		FilePath:       path,
		MaxPayloadSize: int(max(fileInfo.Size(), 1)),
	})
	if err != nil {
		if errors.Is(err, ErrCorruption) {
			// Torn file header; start the log over.
			if err := truncate(path, 0); err != nil {
				return nil, err
			}
			result.BytesTruncated = result.FileSizeBefore
			result.FileSizeAfter = 0
			result.RecoveryTime = time.Since(startTime)
			return result, nil
		}
		return nil, err
	}
	defer reader.Close()

	if reader.Compressed() {
		return nil, fmt.Errorf("cannot recover %s: log is compressed", path)
	}

	var corruptionFound bool
	for {
		_, err := reader.ReadNext()
		if err == nil {
			result.RecordsValidated++
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrCorruption) {
			corruptionFound = true
			break
		}
		var codecErr *codec.Error
		if errors.As(err, &codecErr) {
			result.RecordsValidated++
			result.RecordsInvalid++
			continue
		}
		return nil, err
	}

	if corruptionFound {
		lastValidOffset := reader.Offset()
		if err := truncate(path, lastValidOffset); err != nil {
			return nil, err
		}
		result.FileSizeAfter = lastValidOffset
		result.BytesTruncated = result.FileSizeBefore - lastValidOffset
	}

	result.RecoveryTime = time.Since(startTime)
	return result, nil
}

func truncate(path string, size int64) error {
	file, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	if err := file.Truncate(size); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
