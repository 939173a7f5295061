package imagestore

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression applied to a stored image.
type Codec uint8

const (
	// CodecNone stores images uncompressed.
	CodecNone Codec = iota
	// CodecLZ4 uses LZ4 frames (fast, moderate ratio, good for hot images).
	CodecLZ4
	// CodecZSTD uses zstd frames (better ratio, good for cold images).
	CodecZSTD
)

func (c Codec) String() string {
	switch c {
	case CodecLZ4:
		return "lz4"
	case CodecZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Frame magics, little-endian on the wire.
var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// ZSTD encoder/decoder pools for efficiency.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// DetectCodec inspects the leading frame magic of stored bytes.
func DetectCodec(data []byte) Codec {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return CodecZSTD
	case bytes.HasPrefix(data, lz4Magic):
		return CodecLZ4
	default:
		return CodecNone
	}
}

// Encode compresses raw image bytes with the given codec. CodecNone
// returns data unchanged.
func Encode(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil

	case CodecZSTD:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		return enc.EncodeAll(data, nil), nil

	case CodecLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("imagestore: unknown codec %d", codec)
	}
}

// Decode detects the codec from the frame magic and returns the raw
// image bytes. Unrecognized data is passed through as CodecNone.
func Decode(data []byte) ([]byte, Codec, error) {
	switch DetectCodec(data) {
	case CodecZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, CodecZSTD, fmt.Errorf("imagestore: zstd decode: %w", err)
		}
		return raw, CodecZSTD, nil

	case CodecLZ4:
		raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, CodecLZ4, fmt.Errorf("imagestore: lz4 decode: %w", err)
		}
		return raw, CodecLZ4, nil

	default:
		return data, CodecNone, nil
	}
}
