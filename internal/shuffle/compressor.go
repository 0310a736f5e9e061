package shuffle

import (
	"bytes"
	"fmt"
	"io/ioutil"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
)

// A Compressor compresses the serialized records of a shuffle bucket (and the inverse).
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(src []byte) ([]byte, error)   // Compress returns a compressed copy of src
	Decompress(src []byte) ([]byte, error) // Decompress returns the original data compressed into src
	Destroy()                              // Destroy cleans up anything relevant when the Compressor is no longer needed
}

// Compression algorithm names, as used in configuration
const (
	LZ4    = "lz4"
	Zstd   = "zstd"
	Snappy = "snappy"
	None   = "none"
)

// NewCompressor instantiates the Compressor for the named algorithm
func NewCompressor(name string) (Compressor, error) {
	switch name {
	case LZ4, "":
		return NewLZ4Compressor(), nil
	case Zstd:
		return NewZstdCompressor()
	case Snappy:
		return snappyCompressor{}, nil
	case None:
		return noCompressor{}, nil
	default:
		return nil, fmt.Errorf("Unknown shuffle compression %q", name)
	}
}

// lz4Compressor is a Compressor which uses the lz4 compression algorithm
type lz4Compressor struct{}

// NewLZ4Compressor instantiates a new lz4 Compressor
func NewLZ4Compressor() Compressor {
	return lz4Compressor{}
}

func (lz4Compressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("Unable to compress shuffle data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("Unable to compress shuffle data: %w", err)
	}
	return buf.Bytes(), nil
}

func (lz4Compressor) Decompress(src []byte) ([]byte, error) {
	out, err := ioutil.ReadAll(lz4.NewReader(bytes.NewReader(src)))
	if err != nil {
		return nil, fmt.Errorf("Unable to decompress shuffle data: %w", err)
	}
	return out, nil
}

func (lz4Compressor) Destroy() {}

// zstdCompressor is a Compressor which uses the zstd compression algorithm.
// EncodeAll and DecodeAll may be called concurrently.
type zstdCompressor struct {
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// NewZstdCompressor instantiates a new zstd Compressor
func NewZstdCompressor() (Compressor, error) {
	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("Unable to initialize compressor: %w", err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		compressor.Close()
		return nil, fmt.Errorf("Unable to initialize decompressor: %w", err)
	}
	return &zstdCompressor{compressor: compressor, decompressor: decompressor}, nil
}

func (z *zstdCompressor) Compress(src []byte) ([]byte, error) {
	return z.compressor.EncodeAll(src, nil), nil
}

func (z *zstdCompressor) Decompress(src []byte) ([]byte, error) {
	out, err := z.decompressor.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("Unable to decompress shuffle data: %w", err)
	}
	return out, nil
}

func (z *zstdCompressor) Destroy() {
	z.compressor.Close()
	z.decompressor.Close()
}

type snappyCompressor struct{}

func (snappyCompressor) Compress(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

func (snappyCompressor) Decompress(src []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("Unable to decompress shuffle data: %w", err)
	}
	return out, nil
}

func (snappyCompressor) Destroy() {}

type noCompressor struct{}

func (noCompressor) Compress(src []byte) ([]byte, error)   { return src, nil }
func (noCompressor) Decompress(src []byte) ([]byte, error) { return src, nil }
func (noCompressor) Destroy()                              {}
