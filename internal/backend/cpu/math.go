package cpu

import (
	"fmt"

	"github.com/born-ml/mha/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
//
// Inputs are never modified: every op allocates its result, since attention
// returns its intermediates and an in-place update would overwrite them.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("add: %v", err))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("add: dtype mismatch %s + %s", a.DType(), b.DType()))
	}

	a, b = cpu.Contiguous(a), cpu.Contiguous(b)
	result := cpu.newResult("add", outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		addInto(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	case tensor.Float64:
		addInto(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	case tensor.Float16:
		out := make([]float32, result.NumElements())
		addInto(out, widenFloat16(a.AsFloat16()), widenFloat16(b.AsFloat16()), a.Shape(), b.Shape(), outShape, needsBroadcast)
		narrowFloat32(result.AsFloat16(), out)
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s", a.DType()))
	}

	return result
}

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.mapScalar("mulScalar", x, func(v float64) float64 { return v * scalar })
}

// DivScalar divides every element by scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	if scalar == 0 {
		panic("divScalar: division by zero")
	}
	return cpu.mapScalar("divScalar", x, func(v float64) float64 { return v / scalar })
}

func (cpu *CPUBackend) mapScalar(op string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	x = cpu.Contiguous(x)
	result := cpu.newResult(op, x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		mapInto(result.AsFloat32(), x.AsFloat32(), f)
	case tensor.Float64:
		mapInto(result.AsFloat64(), x.AsFloat64(), f)
	case tensor.Float16:
		out := make([]float32, x.NumElements())
		mapInto(out, widenFloat16(x.AsFloat16()), f)
		narrowFloat32(result.AsFloat16(), out)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}

	return result
}

func mapInto[T float32 | float64](dst, src []T, f func(float64) float64) {
	for i, v := range src {
		dst[i] = T(f(float64(v)))
	}
}

// addInto writes a + b into dst. Without broadcasting the operands have the
// output shape; otherwise each output index is mapped back onto both inputs.
func addInto[T float32 | float64](dst, a, b []T, aShape, bShape, outShape tensor.Shape, needsBroadcast bool) {
	if !needsBroadcast {
		for i := range dst {
			dst[i] = a[i] + b[i]
		}
		return
	}

	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		aIdx, bIdx := 0, 0
		rem := i
		for d := range outShape {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += coord * aStrides[d]
			bIdx += coord * bStrides[d]
		}
		dst[i] = a[aIdx] + b[bIdx]
	}
}

// broadcastStrides returns strides of shape aligned to outShape, with 0 for
// broadcast (size-1 or missing) dimensions.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	src := shape.ComputeStrides()
	offset := len(outShape) - len(shape)
	for d := range shape {
		if shape[d] != 1 {
			strides[offset+d] = src[d]
		}
	}
	return strides
}
