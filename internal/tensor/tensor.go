package tensor

import "fmt"

// Tensor is a tensor bound to a computation backend B.
//
// Unlike the raw representation, Tensor carries the backend so operations can
// be chained. The element type is a runtime property (see DataType) because
// modules cast inputs between precisions at call time.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32, backend)
//	y := x.Add(x)
type Tensor[B Backend] struct {
	raw     *RawTensor
	backend B
}

// New creates a Tensor from a RawTensor and backend.
func New[B Backend](raw *RawTensor, b B) *Tensor[B] {
	return &Tensor[B]{
		raw:     raw,
		backend: b,
	}
}

// Shape returns the tensor's shape.
func (t *Tensor[B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor[B]) DType() DataType {
	return t.raw.DType()
}

// Device returns the tensor's compute device.
func (t *Tensor[B]) Device() Device {
	return t.raw.Device()
}

// NumElements returns the total number of elements.
func (t *Tensor[B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
// Used by backend implementations for low-level operations.
func (t *Tensor[B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[B]) Backend() B {
	return t.backend
}

// IsContiguous reports whether the tensor's storage is in row-major order.
func (t *Tensor[B]) IsContiguous() bool {
	return t.raw.IsContiguous()
}

// Float64s returns a copy of the elements in logical order, widened to float64.
func (t *Tensor[B]) Float64s() []float64 {
	return t.raw.Float64s()
}

// At returns the element at the given indices widened to float64.
// Panics if indices are out of bounds.
//
// Example:
//
//	value := weights.At(0, 1, 2, 0) // batch 0, head 1, query 2, key 0
func (t *Tensor[B]) At(indices ...int) float64 {
	return t.raw.Float64At(indices...)
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}

// Clone creates a deep, contiguous copy of the tensor.
func (t *Tensor[B]) Clone() *Tensor[B] {
	return New(t.raw.Clone(), t.backend)
}
