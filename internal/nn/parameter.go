package nn

import (
	"github.com/born-ml/mha/internal/tensor"
)

// Parameter is a named tensor owned by a module.
//
// Parameters are created at construction and are only read by Forward; the
// playground does no training, so no gradient is tracked.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
type Parameter[B tensor.Backend] struct {
	name   string            // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor[B] // The parameter tensor
}

// NewParameter creates a new parameter.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "W_q.weight")
//   - tensor: The initialized parameter tensor
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[B] {
	return p.tensor
}

// NumElements returns the number of elements in the parameter tensor.
func (p *Parameter[B]) NumElements() int {
	return p.tensor.NumElements()
}

// ByteSize returns the storage size of the parameter in bytes.
func (p *Parameter[B]) ByteSize() int {
	return p.tensor.Raw().ByteSize()
}
