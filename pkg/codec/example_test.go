package codec_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
)

// ExampleRecordCodec_basic demonstrates encoding and decoding a placement
func ExampleRecordCodec_basic() {
	c := codec.NewRecordCodec()

	rec := canvas.PlacementInsert{Time: 1234, Pos: 21, Col: 5}

	buf := make([]byte, c.EncodedLen(rec))
	n, err := c.Encode(rec, buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Encoded %d bytes under tag %v\n", n, rec.Tag())

	decoded, err := c.Decode(rec.Tag(), buf[:n])
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Decoded: %+v\n", decoded)

	// Output:
	// Encoded 20 bytes under tag PlacementInsert
	// Decoded: {Time:1234 Pos:21 Col:5}
}

// ExampleRecordCodec_shortForm shows the palette removal size optimization
func ExampleRecordCodec_shortForm() {
	c := codec.NewRecordCodec()

	short, _ := c.Append(nil, canvas.PaletteRemove{Offset: 16, Length: 1})
	long, _ := c.Append(nil, canvas.PaletteRemove{Offset: 16, Length: 32})

	fmt.Printf("length 1:  % x\n", short)
	fmt.Printf("length 32: % x\n", long)

	// Output:
	// length 1:  10 00 00 00
	// length 32: 10 00 00 00 20 00 00 00
}

// ExampleError demonstrates inspecting a codec error
func ExampleError() {
	c := codec.NewRecordCodec()

	_, err := c.Decode(canvas.TagPaletteRemove, []byte{16, 0, 0, 0, 0, 0, 0, 0})

	var cerr *codec.Error
	if errors.As(err, &cerr) {
		fmt.Println(cerr.Kind, errors.Is(err, codec.ErrInvalidField))
		fmt.Println(err)
	}

	// Output:
	// invalid_field true
	// codec: invalid data in record (00000000)
}
