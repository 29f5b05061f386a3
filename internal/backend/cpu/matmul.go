package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/mha/internal/parallel"
	"github.com/born-ml/mha/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N)
//
// A transposed view (for example a Linear weight passed as W.T) is handed to
// BLAS with blas.Trans instead of being copied.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	// Validate dimensions
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s @ %s", a.DType(), b.DType()))
	}

	result := cpu.newResult("matmul", tensor.Shape{m, n}, a.DType())
	cpu.gemm("matmul", cpu.gemmOperand(a), cpu.gemmOperand(b), result, 1)
	return result
}

// gemmOperand is a [..., rows, cols] operand in a layout BLAS can read directly.
type gemmOperand struct {
	raw   *tensor.RawTensor
	trans bool // storage holds each matrix as [cols, rows] row-major
	rows  int
	cols  int
}

// gemmOperand classifies t's layout. Contiguous tensors and tensors whose last
// two axes are a swap of a contiguous layout are used in place; anything else
// is packed first.
func (cpu *CPUBackend) gemmOperand(t *tensor.RawTensor) gemmOperand {
	shape := t.Shape()
	n := len(shape)
	op := gemmOperand{raw: t, rows: shape[n-2], cols: shape[n-1]}
	if t.IsContiguous() {
		return op
	}

	swappedShape := shape.Clone()
	swappedShape[n-1], swappedShape[n-2] = swappedShape[n-2], swappedShape[n-1]
	swappedStrides := append([]int(nil), t.Strides()...)
	swappedStrides[n-1], swappedStrides[n-2] = swappedStrides[n-2], swappedStrides[n-1]
	if tensor.NewView(t, swappedShape, swappedStrides).IsContiguous() {
		op.trans = true
		return op
	}

	op.raw = cpu.Contiguous(t)
	return op
}

func (op gemmOperand) transpose() blas.Transpose {
	if op.trans {
		return blas.Trans
	}
	return blas.NoTrans
}

// stored returns the matrix dimensions as laid out in storage.
func (op gemmOperand) stored() (rows, cols int) {
	if op.trans {
		return op.cols, op.rows
	}
	return op.rows, op.cols
}

func (op gemmOperand) general32(data []float32, batch int) blas32.General {
	rows, cols := op.stored()
	size := rows * cols
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: data[batch*size : (batch+1)*size]}
}

func (op gemmOperand) general64(data []float64, batch int) blas64.General {
	rows, cols := op.stored()
	size := rows * cols
	return blas64.General{Rows: rows, Cols: cols, Stride: cols, Data: data[batch*size : (batch+1)*size]}
}

// gemm computes result[i] = a[i] @ b[i] for each of the batches matrices.
func (cpu *CPUBackend) gemm(op string, a, b gemmOperand, result *tensor.RawTensor, batches int) {
	switch result.DType() {
	case tensor.Float32:
		gemm32(a, b, a.raw.AsFloat32(), b.raw.AsFloat32(), result.AsFloat32(), batches, cpu.parallel)
	case tensor.Float64:
		gemm64(a, b, a.raw.AsFloat64(), b.raw.AsFloat64(), result.AsFloat64(), batches, cpu.parallel)
	case tensor.Float16:
		out := make([]float32, result.NumElements())
		gemm32(a, b, widenFloat16(a.raw.AsFloat16()), widenFloat16(b.raw.AsFloat16()), out, batches, cpu.parallel)
		narrowFloat32(result.AsFloat16(), out)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, result.DType()))
	}
}

func gemm32(a, b gemmOperand, aData, bData, cData []float32, batches int, cfg parallel.Config) {
	m, n := a.rows, b.cols
	parallel.For(batches, cfg, func(i int) {
		c := blas32.General{Rows: m, Cols: n, Stride: n, Data: cData[i*m*n : (i+1)*m*n]}
		blas32.Gemm(a.transpose(), b.transpose(), 1, a.general32(aData, i), b.general32(bData, i), 0, c)
	})
}

func gemm64(a, b gemmOperand, aData, bData, cData []float64, batches int, cfg parallel.Config) {
	m, n := a.rows, b.cols
	parallel.For(batches, cfg, func(i int) {
		c := blas64.General{Rows: m, Cols: n, Stride: n, Data: cData[i*m*n : (i+1)*m*n]}
		blas64.Gemm(a.transpose(), b.transpose(), 1, a.general64(aData, i), b.general64(bData, i), 0, c)
	})
}
