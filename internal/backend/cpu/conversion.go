package cpu

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/born-ml/mha/internal/tensor"
)

// Cast converts the tensor to a different data type.
// The result is a new contiguous tensor; x is left untouched.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	// No-op if same dtype
	if x.DType() == dtype {
		return x
	}

	x = cpu.Contiguous(x)
	result := cpu.newResult("cast", x.Shape(), dtype)

	switch x.DType() {
	case tensor.Float16:
		castFromFloat16(result, x.AsFloat16())
	case tensor.Float32:
		castFromFloat32(result, x.AsFloat32())
	case tensor.Float64:
		castFromFloat64(result, x.AsFloat64())
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %v", x.DType()))
	}

	return result
}

func castFromFloat16(result *tensor.RawTensor, src []float16.Float16) {
	switch result.DType() {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = v.Float32()
		}
	case tensor.Float64:
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = float64(v.Float32())
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %v from float16", result.DType()))
	}
}

func castFromFloat32(result *tensor.RawTensor, src []float32) {
	switch result.DType() {
	case tensor.Float16:
		narrowFloat32(result.AsFloat16(), src)
	case tensor.Float64:
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = float64(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %v from float32", result.DType()))
	}
}

func castFromFloat64(result *tensor.RawTensor, src []float64) {
	switch result.DType() {
	case tensor.Float16:
		dst := result.AsFloat16()
		for i, v := range src {
			dst[i] = float16.Fromfloat32(float32(v))
		}
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %v from float64", result.DType()))
	}
}
