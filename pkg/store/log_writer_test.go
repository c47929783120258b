package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
	"github.com/ssargent/canvaslog/pkg/metrics"
)

// placementFrameSize is the framed size of any PlacementInsert.
const placementFrameSize = FrameHeaderSize + 20

func newTestWriter(t *testing.T, filePath string) *LogWriter {
	t.Helper()
	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      filePath,
		FsyncInterval: 0, // Immediate fsync
		BufferSize:    4096,
	})
	require.NoError(t, err)
	return writer
}

func TestNewLogWriter(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "canvas.log")

	writer := newTestWriter(t, filePath)
	assert.FileExists(t, filePath)

	// A new log holds only the file header
	assert.Equal(t, int64(FileHeaderSize), writer.Size())
	assert.Equal(t, filePath, writer.Path())
	require.NoError(t, writer.Close())

	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, []byte{'C', 'N', 'V', 'S', 0x00, 0x00}, data)
}

func TestNewLogWriter_DirectoryCreation(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "nested", "deep", "path")

	writer := newTestWriter(t, filepath.Join(nestedDir, "canvas.log"))
	defer writer.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewLogWriter_InvalidPath(t *testing.T) {
	// A regular file cannot be used as a directory
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filepath.Join(blocker, "canvas.log")})
	assert.Error(t, err)
	assert.Nil(t, writer)
}

func TestNewLogWriter_BadHeader(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		contents []byte
		want     error
	}{
		{"wrong magic", []byte("NOPE\x00\x00"), ErrBadMagic},
		{"future version", []byte("CNVS\x01\x00"), ErrVersionMismatch},
		{"torn header", []byte("CNV"), ErrCorruption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.name+".log")
			require.NoError(t, os.WriteFile(filePath, tt.contents, 0600))

			writer, err := NewLogWriter(LogWriterConfig{FilePath: filePath})
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, writer)
		})
	}
}

func TestLogWriter_Append(t *testing.T) {
	writer := newTestWriter(t, filepath.Join(t.TempDir(), "canvas.log"))
	defer writer.Close()

	first, err := writer.Append(canvas.PlacementInsert{Time: 1, Pos: 2, Col: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(FileHeaderSize), first)

	second, err := writer.Append(canvas.PlacementInsertQuiet{Time: 4, Pos: 5, Col: 6})
	require.NoError(t, err)
	assert.Equal(t, first+placementFrameSize, second)

	assert.Equal(t, second+placementFrameSize, writer.Size())
}

func TestLogWriter_AppendAll(t *testing.T) {
	writer := newTestWriter(t, filepath.Join(t.TempDir(), "canvas.log"))
	defer writer.Close()

	offsets, err := writer.AppendAll(
		canvas.PlacementRemove{Time: 1, Pos: 1},
		canvas.PaletteRemove{Offset: 1, Length: 0},
		canvas.PlacementRemove{Time: 2, Pos: 2},
	)
	assert.ErrorIs(t, err, codec.ErrInvalidField)
	assert.Equal(t, []int64{FileHeaderSize}, offsets)
}

func TestLogWriter_AppendRejected(t *testing.T) {
	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:       filepath.Join(t.TempDir(), "canvas.log"),
		MaxPayloadSize: 8,
	})
	require.NoError(t, err)
	defer writer.Close()

	_, err = writer.Append(canvas.PaletteRemove{Offset: 1, Length: 0})
	assert.ErrorIs(t, err, codec.ErrInvalidField)

	_, err = writer.Append(nil)
	assert.ErrorIs(t, err, codec.ErrNilRecord)

	_, err = writer.Append((*canvas.PlacementInsert)(nil))
	assert.ErrorIs(t, err, codec.ErrUnsupportedRecord)

	_, err = writer.Append(canvas.PlacementInsert{Time: 1})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	// Rejected records leave no trace
	assert.Equal(t, int64(FileHeaderSize), writer.Size())

	offset, err := writer.Append(canvas.PaletteRemove{Offset: 7, Length: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(FileHeaderSize), offset)
}

func TestLogWriter_Reopen(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "canvas.log")

	writer := newTestWriter(t, filePath)
	_, err := writer.Append(canvas.PlacementInsert{Time: 1})
	require.NoError(t, err)
	sizeBefore := writer.Size()
	require.NoError(t, writer.Close())

	writer = newTestWriter(t, filePath)
	defer writer.Close()
	assert.Equal(t, sizeBefore, writer.Size())

	offset, err := writer.Append(canvas.PlacementInsert{Time: 2})
	require.NoError(t, err)
	assert.Equal(t, sizeBefore, offset)
}

func TestLogWriter_FsyncInterval(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "canvas.log")

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      filePath,
		FsyncInterval: 10 * time.Millisecond,
		BufferSize:    4096,
	})
	require.NoError(t, err)
	defer writer.Close()

	_, err = writer.Append(canvas.PlacementInsert{Time: 1})
	require.NoError(t, err)

	// Wait for the background fsync to flush the buffer
	assert.Eventually(t, func() bool {
		info, err := os.Stat(filePath)
		return err == nil && info.Size() == FileHeaderSize+placementFrameSize
	}, time.Second, 5*time.Millisecond)
}

func TestLogWriter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath: filepath.Join(t.TempDir(), "canvas.log"),
		Metrics:  metrics.New(reg),
	})
	require.NoError(t, err)
	defer writer.Close()

	_, err = writer.Append(canvas.PlacementInsert{Time: 1})
	require.NoError(t, err)
	_, err = writer.Append(canvas.PlacementRemove{Time: 1})
	require.NoError(t, err)
	_, err = writer.Append(canvas.PaletteRemove{Length: 0})
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "canvaslog_records_written_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "canvaslog_codec_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
