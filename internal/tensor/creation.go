package tensor

import (
	"fmt"
	"math/rand"

	"github.com/x448/float16"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros(Shape{3, 4}, tensor.Float32, backend)
func Zeros[B Backend](shape Shape, dtype DataType, b B) *Tensor[B] {
	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New(raw, b)
}

// FromFloat64s creates a tensor of the given dtype from row-major float64 data.
// Values are narrowed to dtype; the slice is copied.
func FromFloat64s[B Backend](data []float64, shape Shape, dtype DataType, b B) (*Tensor[B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		return nil, err
	}
	raw.fill(func(i int) float64 { return data[i] })
	return New(raw, b), nil
}

// FromFloat32s creates a tensor of the given dtype from row-major float32 data.
func FromFloat32s[B Backend](data []float32, shape Shape, dtype DataType, b B) (*Tensor[B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		return nil, err
	}
	raw.fill(func(i int) float64 { return float64(data[i]) })
	return New(raw, b), nil
}

// Randn creates a tensor with values drawn from N(0, 1), the analogue of torch.randn.
//
// The generator is explicit so results are reproducible for a given seed.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	x := tensor.Randn(Shape{1, 3, 32}, tensor.Float16, rng, backend)
func Randn[B Backend](shape Shape, dtype DataType, rng *rand.Rand, b B) *Tensor[B] {
	t := Zeros(shape, dtype, b)
	t.raw.fill(func(int) float64 { return rng.NormFloat64() })
	return t
}

// Uniform creates a tensor with values drawn uniformly from [low, high).
func Uniform[B Backend](shape Shape, dtype DataType, low, high float64, rng *rand.Rand, b B) *Tensor[B] {
	t := Zeros(shape, dtype, b)
	width := high - low
	t.raw.fill(func(int) float64 { return low + rng.Float64()*width })
	return t
}

// fill writes gen(i) into every element of a contiguous tensor, narrowing to its dtype.
func (r *RawTensor) fill(gen func(i int) float64) {
	switch r.dtype {
	case Float16:
		data := r.AsFloat16()
		for i := range data {
			data[i] = float16.Fromfloat32(float32(gen(i)))
		}
	case Float32:
		data := r.AsFloat32()
		for i := range data {
			data[i] = float32(gen(i))
		}
	case Float64:
		data := r.AsFloat64()
		for i := range data {
			data[i] = gen(i)
		}
	default:
		panic(fmt.Sprintf("fill: unsupported dtype %s", r.dtype))
	}
}
