package embed

import (
	"encoding/binary"
	"math"
	"strconv"

	seekerrors "github.com/noteseek/noteseek/internal/errors"
)

// EncodeVector serializes a vector as little-endian float32 bytes.
// The layout is fixed-width: 4 bytes per component, no header.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, val := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(val))
	}
	return buf
}

// DecodeVector reconstructs a vector from EncodeVector output. The floats
// are bit-identical to the originals. dims is the expected component count;
// a length mismatch means the stored blob is corrupt.
func DecodeVector(buf []byte, dims int) ([]float32, error) {
	if len(buf) != 4*dims {
		return nil, seekerrors.New(seekerrors.ErrCodeCorruptVector,
			"stored vector has wrong byte length", nil).
			WithDetail("expected_dims", strconv.Itoa(dims)).
			WithDetail("got_bytes", strconv.Itoa(len(buf)))
	}

	v := make([]float32, dims)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
