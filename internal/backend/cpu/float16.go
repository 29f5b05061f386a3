package cpu

import "github.com/x448/float16"

// Half precision has no native arithmetic in Go, so float16 kernels widen
// their operands to float32, compute there, and round the result back once.

func widenFloat16(src []float16.Float16) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = v.Float32()
	}
	return dst
}

func narrowFloat32(dst []float16.Float16, src []float32) {
	for i, v := range src {
		dst[i] = float16.Fromfloat32(v)
	}
}
