// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/mha/internal/nn"
	"github.com/born-ml/mha/internal/serialization"
	"github.com/born-ml/mha/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Parameters: Return all parameters
//   - StateDict: Export parameters by qualified name
//   - LoadStateDict: Import parameters by qualified name
//
// Forward is not part of the interface: Linear maps a 2D tensor, Embedding
// maps token ids and MultiHeadAttention returns its intermediates.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Parameters returns all parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters,
	// in a stable order.
	Parameters() []*Parameter[B]

	// StateDict returns a map of parameter names to raw tensors.
	//
	// Nested modules prefix their keys, e.g. "W_q.weight".
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary.
	//
	// Returns an error if a required parameter is missing or has the wrong
	// shape or dtype. Nothing is modified when an error is returned.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Note: Internal implementations of Module automatically satisfy this interface
// because they have the same method signatures.

// CountParameters returns the total number of parameter elements of m.
//
// Example:
//
//	n := nn.CountParameters[*cpu.Backend](mha) // 4224 for d_model 32
func CountParameters[B tensor.Backend](m Module[B]) int {
	return nn.CountParameters[B](m)
}

// Save writes a module's state dictionary to a SafeTensors file.
//
// Parameters:
//   - module: The module to save
//   - path: File path to write to
//   - metadata: Optional metadata (can be nil)
//
// Example:
//
//	err := nn.Save[*cpu.Backend](mha, "mha.safetensors", map[string]string{"format": "pt"})
func Save[B tensor.Backend](module Module[B], path string, metadata map[string]string) error {
	return serialization.WriteFile(path, module.StateDict(), metadata)
}

// Load reads a SafeTensors file and loads it into module.
//
// Returns the file metadata. The module is left unchanged when the file
// does not match its parameters.
//
// Example:
//
//	mha, _ := nn.NewMultiHeadAttention(cfg, backend)
//	metadata, err := nn.Load[*cpu.Backend]("mha.safetensors", mha)
func Load[B tensor.Backend](path string, module Module[B]) (map[string]string, error) {
	file, err := serialization.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := module.LoadStateDict(file.Tensors); err != nil {
		return nil, err
	}
	return file.Metadata, nil
}
