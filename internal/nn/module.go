// Package nn implements the neural network modules of the attention playground.
//
// This package provides:
//   - Module interface: Base interface for components that own parameters
//   - Parameter: Named parameter tensors
//   - Linear: Fully connected layer
//   - Embedding: Token lookup table
//   - MultiHeadAttention: Self-attention block returning its intermediates
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/born-ml/mha/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Forward signatures differ between modules (Linear takes a 2D tensor,
// Embedding takes token ids, MultiHeadAttention returns its intermediates),
// so the interface covers parameter access only.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Parameters returns all parameters of this module, including those of
	// nested modules, in a stable order.
	Parameters() []*Parameter[B]

	// StateDict returns parameter tensors keyed by their qualified name.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies matching tensors into the module's parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// CountParameters returns the total number of parameter elements of m.
func CountParameters[B tensor.Backend](m Module[B]) int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.NumElements()
	}
	return total
}
