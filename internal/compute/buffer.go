package compute

import (
	"encoding/binary"
	"math"
)

// float32Size is the size of one element in bytes.
const float32Size = 4

// paramsSize is the size of the Params uniform in multiply.wgsl.
// Uniform buffers are padded to 16 bytes.
const paramsSize = 16

// encodeFloats serializes a float32 slice as little-endian bytes for upload.
func encodeFloats(src []float32) []byte {
	out := make([]byte, len(src)*float32Size)
	for i, v := range src {
		binary.LittleEndian.PutUint32(out[i*float32Size:], math.Float32bits(v))
	}
	return out
}

// decodeFloats deserializes little-endian bytes into dst.
// Only min(len(dst), len(data)/4) elements are written.
func decodeFloats(data []byte, dst []float32) {
	n := min(len(dst), len(data)/float32Size)
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*float32Size:]))
	}
}

// encodeParams packs the kernel uniform: coeff, len, row_pitch, padding.
func encodeParams(coeff float32, n, rowPitch uint32) []byte {
	out := make([]byte, paramsSize)
	binary.LittleEndian.PutUint32(out[0:], math.Float32bits(coeff))
	binary.LittleEndian.PutUint32(out[4:], n)
	binary.LittleEndian.PutUint32(out[8:], rowPitch)
	return out
}

// byteSize returns the buffer size in bytes for n float32 elements.
func byteSize(n int) uint64 {
	return uint64(n) * float32Size //nolint:gosec // n is a validated element count
}
