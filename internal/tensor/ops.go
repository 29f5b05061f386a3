package tensor

import "fmt"

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	x := tensor.Zeros(Shape{6, 32}, Float32, backend)
//	b := tensor.Zeros(Shape{1, 32}, Float32, backend)
//	y := x.Add(b) // Shape: [6, 32] (broadcasted)
func (t *Tensor[B]) Add(other *Tensor[B]) *Tensor[B] {
	result := t.backend.Add(t.raw, other.raw)
	return New(result, t.backend)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
//
// Either operand may be a transposed view; the backend handles strided layouts.
//
// Example:
//
//	a := tensor.Randn(Shape{3, 4}, Float32, rng, backend)
//	b := tensor.Randn(Shape{5, 4}, Float32, rng, backend)
//	c := a.MatMul(b.T()) // Shape: [3, 5]
func (t *Tensor[B]) MatMul(other *Tensor[B]) *Tensor[B] {
	result := t.backend.MatMul(t.raw, other.raw)
	return New(result, t.backend)
}

// BatchMatMul multiplies the last two axes, batching over all leading axes.
//
// Example:
//
//	q := tensor.Randn(Shape{1, 4, 3, 8}, Float32, rng, backend)
//	scores := q.BatchMatMul(k.Transpose(0, 1, 3, 2)) // Shape: [1, 4, 3, 3]
func (t *Tensor[B]) BatchMatMul(other *Tensor[B]) *Tensor[B] {
	result := t.backend.BatchMatMul(t.raw, other.raw)
	return New(result, t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements and the tensor must be
// contiguous; call Contiguous first on transposed views.
//
// Example:
//
//	q := proj.Reshape(batch, seq, numHeads, headDim)
func (t *Tensor[B]) Reshape(newShape ...int) *Tensor[B] {
	result := t.backend.Reshape(t.raw, Shape(newShape))
	return New(result, t.backend)
}

// Transpose permutes the tensor's dimensions without copying data.
//
// If axes is empty, reverses all dimensions (for 2D, this is standard transpose).
// Otherwise, axes specifies the permutation.
//
// Example:
//
//	t := tensor.Zeros(Shape{2, 3, 4}, Float32, backend)
//	transposed := t.Transpose(2, 0, 1) // Shape: [4, 2, 3]
func (t *Tensor[B]) Transpose(axes ...int) *Tensor[B] {
	result := t.backend.Transpose(t.raw, axes...)
	return New(result, t.backend)
}

// SwapAxes exchanges two dimensions, accepting negative indices (-1 = last).
//
// Example:
//
//	kT := k.SwapAxes(-1, -2) // [b, h, s, d] -> [b, h, d, s]
func (t *Tensor[B]) SwapAxes(a, b int) *Tensor[B] {
	ndim := len(t.Shape())
	if a < 0 {
		a += ndim
	}
	if b < 0 {
		b += ndim
	}
	if a < 0 || a >= ndim || b < 0 || b >= ndim {
		panic(fmt.Sprintf("swapaxes: axes (%d, %d) out of range for %dD tensor", a, b, ndim))
	}
	axes := make([]int, ndim)
	for i := range axes {
		axes[i] = i
	}
	axes[a], axes[b] = axes[b], axes[a]
	return t.Transpose(axes...)
}

// T is a shortcut for 2D transpose (swaps rows and columns).
// Panics if the tensor is not 2D.
func (t *Tensor[B]) T() *Tensor[B] {
	if len(t.Shape()) != 2 {
		panic("T() only works for 2D tensors")
	}
	return t.Transpose(1, 0)
}

// Contiguous returns a tensor whose storage is in row-major order.
// Returns the receiver unchanged when it is already contiguous.
func (t *Tensor[B]) Contiguous() *Tensor[B] {
	if t.raw.IsContiguous() {
		return t
	}
	return New(t.backend.Contiguous(t.raw), t.backend)
}
