// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/mha/internal/nn"
	"github.com/born-ml/mha/tensor"
)

// Parameter represents a named parameter of a neural network module.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//
// Methods:
//
//	Name() string
//	    Returns the parameter name (e.g., "W_q.weight").
//
//	Tensor() *tensor.Tensor[B]
//	    Returns the parameter tensor.
//
//	NumElements() int
//	    Returns the number of elements of the tensor.
//
//	ByteSize() int
//	    Returns the storage size in bytes at the tensor's precision.
//
// Note: Parameter is implemented as a type alias because it is used as a return type
// in the Module interface. Go's type system requires exact type matches for interface
// implementations, so we cannot use an interface here.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}
