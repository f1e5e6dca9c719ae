// SPDX-License-Identifier: EPL-2.0

package utils

// PCMScale returns the magnitude of full scale for signed PCM of bitDepth
// bits. Unknown depths are treated as 16 bit.
func PCMScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 1 << 7
	case 24:
		return 1 << 23
	case 32:
		return 1 << 31
	default:
		return 1 << 15
	}
}

// PCMToFloat32 converts a signed integer sample to [-1,1].
func PCMToFloat32(v, bitDepth int) float32 {
	return float32(v) / PCMScale(bitDepth)
}

// Float32ToPCM clamps x to [-1,1] and scales it to a signed integer sample.
// Positive full scale maps to the largest representable value.
func Float32ToPCM(x float32, bitDepth int) int {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	scale := float64(PCMScale(bitDepth))
	if x > 0 {
		return int(float64(x) * (scale - 1))
	}
	return int(float64(x) * scale)
}
