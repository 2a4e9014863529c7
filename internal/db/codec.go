package db

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Value encodings stored alongside blobs.
const (
	EncodingRaw  = "raw"
	EncodingZstd = "zstd"
)

// CompressThreshold is the size above which blobs are zstd-compressed.
const CompressThreshold = 64 << 10

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("db: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("db: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode compresses data above CompressThreshold when that makes it
// smaller, and returns the stored bytes with their encoding.
func Encode(data []byte) ([]byte, string) {
	if len(data) <= CompressThreshold {
		return data, EncodingRaw
	}
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return data, EncodingRaw
	}
	return compressed, EncodingZstd
}

// Decode reverses Encode. size is the original length.
func Decode(stored []byte, encoding string, size int) ([]byte, error) {
	switch encoding {
	case EncodingRaw, "":
		return stored, nil
	case EncodingZstd:
		out, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}
