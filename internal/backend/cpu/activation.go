package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/mha/internal/parallel"
	"github.com/born-ml/mha/internal/tensor"
)

// Softmax computes softmax along the specified dimension.
// Softmax(x_i) = exp(x_i - max) / sum(exp(x_j - max)) for all j in dimension.
//
// The per-row maximum is subtracted before exponentiating so large scores do
// not overflow. Float16 input is computed in float32 and rounded once.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	// Normalize dimension
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("softmax: dimension %d out of range for tensor of rank %d", dim, ndim))
	}

	x = cpu.Contiguous(x)
	result := cpu.newResult("softmax", shape, x.DType())

	switch x.DType() {
	case tensor.Float32:
		softmaxRows(result.AsFloat32(), x.AsFloat32(), shape, dim, cpu.parallel)
	case tensor.Float64:
		softmaxRows(result.AsFloat64(), x.AsFloat64(), shape, dim, cpu.parallel)
	case tensor.Float16:
		out := make([]float32, x.NumElements())
		softmaxRows(out, widenFloat16(x.AsFloat16()), shape, dim, cpu.parallel)
		narrowFloat32(result.AsFloat16(), out)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	return result
}

// softmaxRows normalises every 1-D slice of src along dim into dst.
// Both slices are contiguous with the given shape.
func softmaxRows[T float32 | float64](dst, src []T, shape tensor.Shape, dim int, cfg parallel.Config) {
	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	// Number of "rows" (groups of elements that share softmax computation)
	numRows := shape.NumElements() / dimSize

	parallel.For(numRows, cfg, func(row int) {
		// Compute base index for this row
		baseIdx := 0
		remaining := row
		for i := len(shape) - 1; i >= 0; i-- {
			if i == dim {
				continue
			}
			coord := remaining % shape[i]
			remaining /= shape[i]
			baseIdx += coord * strides[i]
		}

		// Find max for numerical stability
		maxVal := T(math.Inf(-1))
		for i := 0; i < dimSize; i++ {
			if v := src[baseIdx+i*dimStride]; v > maxVal {
				maxVal = v
			}
		}

		// Compute exp(x - max) and sum
		var sum T
		for i := 0; i < dimSize; i++ {
			idx := baseIdx + i*dimStride
			expVal := T(math.Exp(float64(src[idx] - maxVal)))
			dst[idx] = expVal
			sum += expVal
		}

		// Normalize
		for i := 0; i < dimSize; i++ {
			dst[baseIdx+i*dimStride] /= sum
		}
	})
}
