// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/mha/internal/backend/cpu"
	"github.com/born-ml/mha/internal/parallel"
	"github.com/born-ml/mha/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of all tensor operations
// the attention block needs.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option = internalcpu.Option

// ParallelConfig controls how operations fan out across goroutines.
type ParallelConfig = parallel.Config

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/mha/backend/cpu"
//	    "github.com/born-ml/mha/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32, backend)
//	}
func New(opts ...Option) *Backend {
	return internalcpu.New(opts...)
}

// WithParallel sets the parallel execution settings of the backend.
func WithParallel(cfg ParallelConfig) Option {
	return internalcpu.WithParallel(cfg)
}

// DefaultParallelConfig returns the settings a backend uses when none are given.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// Sequential returns settings that run every operation on the calling goroutine.
func Sequential() ParallelConfig {
	return parallel.Sequential()
}
