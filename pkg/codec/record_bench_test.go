package codec

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ssargent/canvaslog/pkg/canvas"
)

func BenchmarkRecordCodec_EncodePlacement(b *testing.B) {
	codec := NewRecordCodec()
	rec := canvas.PlacementInsert{Time: 1234, Pos: 21, Col: 5}
	buf := make([]byte, codec.EncodedLen(rec))

	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := codec.Encode(rec, buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecordCodec_DecodePlacement(b *testing.B) {
	codec := NewRecordCodec()
	payload, err := codec.Append(nil, canvas.PlacementInsert{Time: 1234, Pos: 21, Col: 5})
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := codec.Decode(canvas.TagPlacementInsert, payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecordCodec_PaletteInsert(b *testing.B) {
	sizes := []int{1, 16, 256, 4096}

	for _, size := range sizes {
		colors := make([]canvas.Color, size)
		for i := range colors {
			colors[i] = canvas.Color{byte(i), byte(i >> 8), 0, 0xFF}
		}
		rec := canvas.PaletteInsert{Offset: 0, Colors: colors}

		b.Run(fmt.Sprintf("encode_%d", size), func(b *testing.B) {
			codec := NewRecordCodec()
			buf := make([]byte, codec.EncodedLen(rec))
			b.SetBytes(int64(len(buf)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := codec.Encode(rec, buf); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(fmt.Sprintf("decode_%d", size), func(b *testing.B) {
			codec := NewRecordCodec()
			payload, err := codec.Append(nil, rec)
			if err != nil {
				b.Fatal(err)
			}
			b.SetBytes(int64(len(payload)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := codec.Decode(canvas.TagPaletteInsert, payload); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecordCodec_IdentifierSecret(b *testing.B) {
	codec := NewRecordCodec()
	secret := canvas.IdentifierSecret(bytes.Repeat([]byte{42}, 256))

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		payload, err := codec.Append(nil, secret)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := codec.Decode(canvas.TagIdentifierSecret, payload); err != nil {
			b.Fatal(err)
		}
	}
}
