// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensors the attention block computes with.
//
// # Overview
//
// Tensors are the data structure every attention intermediate is returned
// as. This package provides:
//   - Tensors bound to a backend (Tensor[B]) with a runtime precision
//   - Half, single and double precision (Float16, Float32, Float64)
//   - NumPy-style broadcasting
//   - Zero-copy transpose views and reshape of contiguous data
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/mha/backend/cpu"
//	    "github.com/born-ml/mha/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(0))
//
//	    x := tensor.Randn(tensor.Shape{1, 3, 32}, tensor.Float16, rng, backend)
//	    w := tensor.Randn(tensor.Shape{32, 32}, tensor.Float16, rng, backend)
//	    y := x.Reshape(3, 32).MatMul(w.T())
//	}
//
// # Views and Contiguity
//
// Transpose, T and SwapAxes return views that share storage with their
// source. Reshape requires contiguous data and panics otherwise, the way
// torch's view does; call Contiguous first:
//
//	merged := heads.Transpose(0, 2, 1, 3).Contiguous().Reshape(batch, seq, dModel)
//
// # Precision
//
// Float16 values are stored as IEEE 754 half precision. Kernels compute
// them in float32 and round once per output element. Cast converts between
// precisions and never modifies its receiver.
package tensor
