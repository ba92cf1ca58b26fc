package capture

import (
	"encoding/binary"
	"math"
)

// RMSLevel computes the normalized root-mean-square level of a 16-bit
// little-endian PCM chunk, in [0.0, 1.0]. Odd trailing bytes are ignored.
// Used by the UI's audio meter.
func RMSLevel(chunk []byte) float64 {
	n := len(chunk) / 2
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(chunk[i*2:]))
		f := float64(s) / math.MaxInt16
		sum += f * f
	}
	return math.Sqrt(sum / float64(n))
}
