// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Matrix multiplication on gonum BLAS, transposed views passed without a copy
//   - Float16, Float32 and Float64 support
//   - NumPy-compatible broadcasting
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/mha/backend/cpu"
//	    "github.com/born-ml/mha/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    cfg := nn.DefaultMHAConfig()
//	    mha, err := nn.NewMultiHeadAttention(cfg, backend)
//	}
//
// # Parallelism
//
// Batched matrix multiplication and softmax split their independent
// matrices and rows across workers once the work is large enough. Use
// WithParallel to tune or disable this:
//
//	backend := cpu.New(cpu.WithParallel(cpu.Sequential()))
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
