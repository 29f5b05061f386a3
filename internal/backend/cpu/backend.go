// Package cpu implements the CPU backend on top of gonum BLAS.
package cpu

import (
	"fmt"

	"github.com/born-ml/mha/internal/parallel"
	"github.com/born-ml/mha/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// Matrix products go through gonum's BLAS; batched work (one matrix or one
// softmax row per item) is spread across goroutines according to the
// parallel configuration. The backend has no mutable state and is safe for
// concurrent use.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// Option configures a CPUBackend.
type Option func(*CPUBackend)

// WithParallel overrides the parallel execution configuration.
func WithParallel(cfg parallel.Config) Option {
	return func(cpu *CPUBackend) {
		cpu.parallel = cfg
	}
}

// New creates a new CPU backend.
func New(opts ...Option) *CPUBackend {
	cpu := &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(cpu)
	}
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Reshape returns a view of t with a new shape.
// The tensor must be contiguous: a strided view has no single row-major
// reinterpretation, so callers must use Contiguous first.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}

	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}

	if !t.IsContiguous() {
		panic(fmt.Sprintf("reshape: tensor with shape %v and strides %v is not contiguous",
			t.Shape(), t.Strides()))
	}

	return tensor.NewView(t, newShape, newShape.ComputeStrides())
}

// Transpose returns a view of t with its dimensions permuted.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	strides := t.Strides()
	ndim := len(shape)

	// Default: reverse all dimensions
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	// Validate axes
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	newStrides := make([]int, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
		newStrides[i] = strides[ax]
	}

	return tensor.NewView(t, newShape, newStrides)
}

// Contiguous returns t when it is already row-major, otherwise a packed copy.
func (cpu *CPUBackend) Contiguous(t *tensor.RawTensor) *tensor.RawTensor {
	if t.IsContiguous() {
		return t
	}
	return t.Clone()
}

// newResult allocates an output tensor, panicking with the op name on failure.
func (cpu *CPUBackend) newResult(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}
