package oto

import (
	"encoding/binary"
	"math"
)

// floatBufferToBytes converts a mono []float32 block to the raw
// little-endian byte layout the oto player consumes.
func floatBufferToBytes(buffer []float32) []byte {
	out := make([]byte, len(buffer)*4)
	for i, v := range buffer {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
