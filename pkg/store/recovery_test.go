package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/canvaslog/pkg/canvas"
)

func TestRecover_MissingFile(t *testing.T) {
	result, err := Recover(filepath.Join(t.TempDir(), "missing.log"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RecordsValidated)
	assert.Equal(t, int64(0), result.FileSizeBefore)
}

func TestRecover_CleanLog(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "canvas.log")
	records := sampleRecords()
	writeLog(t, filePath, records)

	result, err := Recover(filePath)
	require.NoError(t, err)

	assert.Equal(t, int64(len(records)), result.RecordsValidated)
	assert.Equal(t, int64(0), result.RecordsInvalid)
	assert.Equal(t, int64(0), result.BytesTruncated)
	assert.Equal(t, result.FileSizeBefore, result.FileSizeAfter)
}

func TestRecover_TornTail(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "canvas.log")
	offsets := writeLog(t, filePath, []canvas.Record{
		canvas.PlacementInsert{Time: 1},
		canvas.PlacementInsert{Time: 2},
		canvas.PlacementInsert{Time: 3},
	})

	// Simulate a crash halfway through the last frame
	info, err := os.Stat(filePath)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(filePath, info.Size()-7))

	result, err := Recover(filePath)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.RecordsValidated)
	assert.Equal(t, offsets[2], result.FileSizeAfter)
	assert.Equal(t, int64(placementFrameSize-7), result.BytesTruncated)

	// The log accepts appends again
	writer := newTestWriter(t, filePath)
	offset, err := writer.Append(canvas.PlacementInsert{Time: 4})
	require.NoError(t, err)
	assert.Equal(t, offsets[2], offset)
	require.NoError(t, writer.Close())

	reader, err := NewLogReader(LogReaderConfig{FilePath: filePath})
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, []canvas.Record{
		canvas.PlacementInsert{Time: 1},
		canvas.PlacementInsert{Time: 2},
		canvas.PlacementInsert{Time: 4},
	}, readAll(t, reader))
}

func TestRecover_TornHeader(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "canvas.log")
	require.NoError(t, os.WriteFile(filePath, []byte("CNV"), 0600))

	result, err := Recover(filePath)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.BytesTruncated)
	assert.Equal(t, int64(0), result.FileSizeAfter)

	writer := newTestWriter(t, filePath)
	assert.Equal(t, int64(FileHeaderSize), writer.Size())
	require.NoError(t, writer.Close())
}

func TestRecover_KeepsInvalidRecords(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "canvas.log")
	writeLog(t, filePath, []canvas.Record{canvas.PlacementInsert{Time: 1}})
	appendRawFrame(t, filePath, canvas.Tag(0x0042), []byte{1, 2, 3})

	result, err := Recover(filePath)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.RecordsValidated)
	assert.Equal(t, int64(1), result.RecordsInvalid)
	assert.Equal(t, int64(0), result.BytesTruncated)
}

func TestRecover_WrongMagic(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "canvas.log")
	require.NoError(t, os.WriteFile(filePath, []byte("NOT A LOG"), 0600))

	_, err := Recover(filePath)
	assert.ErrorIs(t, err, ErrBadMagic)
}
