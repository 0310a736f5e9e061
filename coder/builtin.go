package coder

import (
	"math"

	"github.com/go-sif/combine/typex"
	"google.golang.org/protobuf/encoding/protowire"
)

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// varIntCoder encodes signed integers as zigzag varints
type varIntCoder[T signed] struct{}

func (varIntCoder[T]) Encode(buf []byte, v T) ([]byte, error) {
	return protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(v))), nil
}

func (varIntCoder[T]) Decode(buf []byte) (T, int, error) {
	x, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, 0, TruncatedError{What: "varint", Code: n}
	}
	return T(protowire.DecodeZigZag(x)), n, nil
}

// Int returns a variable-width Coder for int
func Int() Coder[int] { return varIntCoder[int]{} }

// Int32 returns a variable-width Coder for int32
func Int32() Coder[int32] { return varIntCoder[int32]{} }

// Int64 returns a variable-width Coder for int64
func Int64() Coder[int64] { return varIntCoder[int64]{} }

type uvarintCoder struct{}

func (uvarintCoder) Encode(buf []byte, v uint64) ([]byte, error) {
	return protowire.AppendVarint(buf, v), nil
}

func (uvarintCoder) Decode(buf []byte) (uint64, int, error) {
	x, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, 0, TruncatedError{What: "uvarint", Code: n}
	}
	return x, n, nil
}

// Uint64 returns a variable-width Coder for uint64
func Uint64() Coder[uint64] { return uvarintCoder{} }

type fixed32Coder[T ~int32] struct{}

func (fixed32Coder[T]) Encode(buf []byte, v T) ([]byte, error) {
	return protowire.AppendFixed32(buf, uint32(v)), nil
}

func (fixed32Coder[T]) Decode(buf []byte) (T, int, error) {
	x, n := protowire.ConsumeFixed32(buf)
	if n < 0 {
		return 0, 0, TruncatedError{What: "fixed32", Code: n}
	}
	return T(int32(x)), n, nil
}

type fixed64Coder[T ~int64] struct{}

func (fixed64Coder[T]) Encode(buf []byte, v T) ([]byte, error) {
	return protowire.AppendFixed64(buf, uint64(v)), nil
}

func (fixed64Coder[T]) Decode(buf []byte) (T, int, error) {
	x, n := protowire.ConsumeFixed64(buf)
	if n < 0 {
		return 0, 0, TruncatedError{What: "fixed64", Code: n}
	}
	return T(int64(x)), n, nil
}

// FixedInt32 returns a fixed-width (4 byte) Coder for int32
func FixedInt32() Coder[int32] { return fixed32Coder[int32]{} }

// FixedInt64 returns a fixed-width (8 byte) Coder for int64
func FixedInt64() Coder[int64] { return fixed64Coder[int64]{} }

type float64Coder struct{}

func (float64Coder) Encode(buf []byte, v float64) ([]byte, error) {
	return protowire.AppendFixed64(buf, math.Float64bits(v)), nil
}

func (float64Coder) Decode(buf []byte) (float64, int, error) {
	x, n := protowire.ConsumeFixed64(buf)
	if n < 0 {
		return 0, 0, TruncatedError{What: "float64", Code: n}
	}
	return math.Float64frombits(x), n, nil
}

// Float64 returns a fixed-width Coder for float64
func Float64() Coder[float64] { return float64Coder{} }

type float32Coder struct{}

func (float32Coder) Encode(buf []byte, v float32) ([]byte, error) {
	return protowire.AppendFixed32(buf, math.Float32bits(v)), nil
}

func (float32Coder) Decode(buf []byte) (float32, int, error) {
	x, n := protowire.ConsumeFixed32(buf)
	if n < 0 {
		return 0, 0, TruncatedError{What: "float32", Code: n}
	}
	return math.Float32frombits(x), n, nil
}

// Float32 returns a fixed-width Coder for float32
func Float32() Coder[float32] { return float32Coder{} }

type boolCoder struct{}

func (boolCoder) Encode(buf []byte, v bool) ([]byte, error) {
	if v {
		return append(buf, 1), nil
	}
	return append(buf, 0), nil
}

func (boolCoder) Decode(buf []byte) (bool, int, error) {
	if len(buf) == 0 {
		return false, 0, TruncatedError{What: "bool", Code: -1}
	}
	return buf[0] == 1, 1, nil
}

// Bool returns a single-byte Coder for bool
func Bool() Coder[bool] { return boolCoder{} }

type bytesCoder struct{}

func (bytesCoder) Encode(buf []byte, v []byte) ([]byte, error) {
	return protowire.AppendBytes(buf, v), nil
}

func (bytesCoder) Decode(buf []byte) ([]byte, int, error) {
	b, n := protowire.ConsumeBytes(buf)
	if n < 0 {
		return nil, 0, TruncatedError{What: "bytes", Code: n}
	}
	// copy, so that decoded values never alias a shuffle buffer
	out := make([]byte, len(b))
	copy(out, b)
	return out, n, nil
}

// Bytes returns a length-prefixed Coder for []byte
func Bytes() Coder[[]byte] { return bytesCoder{} }

type stringCoder struct{}

func (stringCoder) Encode(buf []byte, v string) ([]byte, error) {
	return protowire.AppendString(buf, v), nil
}

func (stringCoder) Decode(buf []byte) (string, int, error) {
	s, n := protowire.ConsumeString(buf)
	if n < 0 {
		return "", 0, TruncatedError{What: "string", Code: n}
	}
	return s, n, nil
}

// String returns a length-prefixed Coder for string
func String() Coder[string] { return stringCoder{} }

type unitCoder struct{}

func (unitCoder) Encode(buf []byte, _ typex.Unit) ([]byte, error) {
	return buf, nil
}

func (unitCoder) Decode(buf []byte) (typex.Unit, int, error) {
	return typex.Unit{}, 0, nil
}

// Unit returns a zero-width Coder for typex.Unit
func Unit() Coder[typex.Unit] { return unitCoder{} }
