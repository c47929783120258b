package store

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
)

func fileHeader() []byte {
	h := make([]byte, FileHeaderSize)
	copy(h, fileMagic[:])
	binary.LittleEndian.PutUint16(h[4:], codec.Version)
	return h
}

func checkFileHeader(h []byte) error {
	if len(h) != FileHeaderSize || [4]byte(h[:4]) != fileMagic {
		return ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(h[4:]); v != codec.Version {
		return fmt.Errorf("%w: %d", ErrVersionMismatch, v)
	}
	return nil
}

// frameChecksum covers the tag, the length and the payload.
func frameChecksum(header, payload []byte) uint32 {
	crc := crc32.ChecksumIEEE(header[:6])
	return crc32.Update(crc, crc32.IEEETable, payload)
}

// putFrameHeader fills the first FrameHeaderSize bytes of frame, whose
// payload already follows the header.
func putFrameHeader(frame []byte, tag canvas.Tag) {
	payload := frame[FrameHeaderSize:]
	binary.LittleEndian.PutUint16(frame[0:2], uint16(tag))
	binary.LittleEndian.PutUint32(frame[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(frame[6:10], frameChecksum(frame, payload))
}

type frameHeader struct {
	tag    canvas.Tag
	length uint32
	crc    uint32
}

func parseFrameHeader(b []byte) frameHeader {
	return frameHeader{
		tag:    canvas.Tag(binary.LittleEndian.Uint16(b[0:2])),
		length: binary.LittleEndian.Uint32(b[2:6]),
		crc:    binary.LittleEndian.Uint32(b[6:10]),
	}
}
