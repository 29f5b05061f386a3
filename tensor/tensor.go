// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations.
//
// The package defines core types for tensor operations:
//   - Tensor[B]: Tensor bound to a backend, precision chosen at runtime
//   - RawTensor: Low-level tensor for backend implementations
//   - Backend: Interface for device-specific compute implementations
//   - Shape, DataType, Device: Core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32, backend)
//	z := x.Add(x) // Element-wise addition
package tensor

import (
	"math/rand"

	"github.com/born-ml/mha/internal/tensor"
)

// Type aliases for public API

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Float16 DataType = tensor.Float16
)

// ParseDataType converts a name such as "float16", "half" or "fp32" into a DataType.
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU Device = tensor.CPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a tensor bound to a computation backend.
//
// B is the backend implementation (CPU). The element type is a runtime
// property, see DataType.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float16, backend)
//	y := x.Cast(tensor.Float32)
type Tensor[B Backend] = tensor.Tensor[B]

// Creation functions

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32, backend)
func Zeros[B Backend](shape Shape, dtype DataType, b B) *Tensor[B] {
	return tensor.Zeros(shape, dtype, b)
}

// Randn creates a tensor filled with random values from standard normal distribution N(0, 1).
//
// Example:
//
//	rng := rand.New(rand.NewSource(0))
//	x := tensor.Randn(tensor.Shape{1, 3, 32}, tensor.Float16, rng, backend)
func Randn[B Backend](shape Shape, dtype DataType, rng *rand.Rand, b B) *Tensor[B] {
	return tensor.Randn(shape, dtype, rng, b)
}

// Uniform creates a tensor filled with random values from uniform distribution U(low, high).
func Uniform[B Backend](shape Shape, dtype DataType, low, high float64, rng *rand.Rand, b B) *Tensor[B] {
	return tensor.Uniform(shape, dtype, low, high, rng, b)
}

// FromFloat64s creates a tensor of the given precision from row-major values.
//
// Example:
//
//	x, err := tensor.FromFloat64s([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.Float16, backend)
func FromFloat64s[B Backend](data []float64, shape Shape, dtype DataType, b B) (*Tensor[B], error) {
	return tensor.FromFloat64s(data, shape, dtype, b)
}

// FromFloat32s creates a tensor of the given precision from row-major values.
func FromFloat32s[B Backend](data []float32, shape Shape, dtype DataType, b B) (*Tensor[B], error) {
	return tensor.FromFloat32s(data, shape, dtype, b)
}

// New creates a tensor from a raw tensor.
//
// This is a low-level function. Most users should use creation functions like
// Zeros, Randn, or FromFloat64s instead.
func New[B Backend](raw *RawTensor, b B) *Tensor[B] {
	return tensor.New(raw, b)
}

// Utility functions

// BroadcastShapes computes the broadcast shape for two shapes following NumPy broadcasting rules.
// Returns the resulting shape, whether broadcasting is needed, and an error if incompatible.
//
// Example:
//
//	resultShape, needsBroadcast, err := tensor.BroadcastShapes(
//	    tensor.Shape{3, 1},
//	    tensor.Shape{3, 4},
//	)
//	// resultShape = [3, 4], needsBroadcast = true
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
