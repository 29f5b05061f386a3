// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/mha/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: Pure Go on gonum BLAS
//
// Example:
//
//	import (
//	    "github.com/born-ml/mha/tensor"
//	    "github.com/born-ml/mha/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32, backend)
//	z := x.Add(x) // Uses backend.Add under the hood
type Backend interface {
	// Element-wise operations.
	Add(a, b *RawTensor) *RawTensor                    // Addition with broadcasting.
	MulScalar(x *RawTensor, scalar float64) *RawTensor // Multiply by scalar.
	DivScalar(x *RawTensor, scalar float64) *RawTensor // Divide by scalar.

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor      // Matrix multiplication.
	BatchMatMul(a, b *RawTensor) *RawTensor // Batched matrix multiplication for 3D/4D tensors.

	// Activation functions.
	Softmax(x *RawTensor, dim int) *RawTensor // Softmax along dimension.

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor // Reshape contiguous tensor.
	Transpose(t *RawTensor, axes ...int) *RawTensor  // Permute dimensions (view).
	Contiguous(t *RawTensor) *RawTensor              // Row-major copy of a view.

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor // Cast to different data type.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU").
	Device() Device // Device type.
}

// Compile-time check that internal Backend implements public Backend.
var _ Backend = tensor.Backend(nil)
