package cpu

import (
	"fmt"

	"github.com/born-ml/mha/internal/tensor"
)

// BatchMatMul performs batched matrix multiplication.
// Supports 3D and 4D tensors with batch dimensions.
//
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
//
// The last two dimensions are treated as matrix dimensions.
// All leading dimensions must match (batch dimensions); each matrix pair is
// one unit of parallel work.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()
	ndim := len(aShape)

	// Validate dimensions
	if ndim < 3 {
		panic(fmt.Sprintf("BatchMatMul: inputs must be at least 3D, got %dD", ndim))
	}
	if len(bShape) != ndim {
		panic(fmt.Sprintf("BatchMatMul: dimension mismatch, got %dD and %dD", ndim, len(bShape)))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("BatchMatMul: dtype mismatch %s @ %s", a.DType(), b.DType()))
	}

	// Validate batch dimensions match
	for i := 0; i < ndim-2; i++ {
		if aShape[i] != bShape[i] {
			panic(fmt.Sprintf("BatchMatMul: batch dimension mismatch at dim %d: %d vs %d", i, aShape[i], bShape[i]))
		}
	}

	// Extract matrix dimensions
	m := aShape[ndim-2]
	k1 := aShape[ndim-1]
	k2 := bShape[ndim-2]
	n := bShape[ndim-1]

	if k1 != k2 {
		panic(fmt.Sprintf("BatchMatMul: inner dimension mismatch: %d vs %d", k1, k2))
	}

	// Compute batch size (product of all batch dims)
	batchSize := 1
	for i := 0; i < ndim-2; i++ {
		batchSize *= aShape[i]
	}

	// Output shape = batch dims + [M, N]
	outShape := make(tensor.Shape, ndim)
	copy(outShape, aShape[:ndim-2])
	outShape[ndim-2] = m
	outShape[ndim-1] = n

	result := cpu.newResult("BatchMatMul", outShape, a.DType())
	cpu.gemm("BatchMatMul", cpu.gemmOperand(a), cpu.gemmOperand(b), result, batchSize)
	return result
}
