// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/mha/internal/nn"
	"github.com/born-ml/mha/tensor"
)

// Errors

// Errors returned by construction, Forward and LoadStateDict wrap one of
// these. Match them with errors.Is.
var (
	ErrInvalidConfig = nn.ErrInvalidConfig
	ErrShapeMismatch = nn.ErrShapeMismatch
)

// Attention

// MHAConfig configures a MultiHeadAttention block.
type MHAConfig = nn.MHAConfig

// DefaultMHAConfig returns 4 heads over d_model 32 in float32.
func DefaultMHAConfig() MHAConfig {
	return nn.DefaultMHAConfig()
}

// MultiHeadAttention represents the multi-head self-attention block.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// AttentionOutputs holds the six intermediates of one Forward call.
type AttentionOutputs[B tensor.Backend] = nn.AttentionOutputs[B]

// NewMultiHeadAttention creates a new multi-head attention block.
//
// Returns an error wrapping ErrInvalidConfig when cfg.DModel is not
// divisible by cfg.NumHeads.
//
// Example:
//
//	backend := cpu.New()
//	cfg := nn.MHAConfig{NumHeads: 4, DModel: 32, DType: tensor.Float16}
//	mha, err := nn.NewMultiHeadAttention(cfg, backend)
func NewMultiHeadAttention[B tensor.Backend](cfg MHAConfig, backend B) (*MultiHeadAttention[B], error) {
	return nn.NewMultiHeadAttention(cfg, backend)
}

// OutputNames returns the names of the Forward intermediates in Tuple order.
func OutputNames() []string {
	return nn.OutputNames()
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with weight and bias drawn from
// U(-1/sqrt(in), 1/sqrt(in)).
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(32, 32, tensor.Float16, rng, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, dtype tensor.DataType, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, dtype, rng, backend)
}

// Embedding represents a lookup table for embeddings.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates a new embedding layer with rows drawn from N(0, 1).
//
// Example:
//
//	backend := cpu.New()
//	embed := nn.NewEmbedding(100277, 32, tensor.Float16, rng, backend)
//	x, err := embed.Forward([]int32{9906, 11, 1917}) // [1, 3, 32]
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, dtype tensor.DataType, rng *rand.Rand, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, dtype, rng, backend)
}

// Initialization functions

// LinearUniform draws a tensor from U(-1/sqrt(fanIn), 1/sqrt(fanIn)).
func LinearUniform[B tensor.Backend](fanIn int, shape tensor.Shape, dtype tensor.DataType, rng *rand.Rand, backend B) *tensor.Tensor[B] {
	return nn.LinearUniform(fanIn, shape, dtype, rng, backend)
}

// Normal draws a tensor from N(0, 1).
func Normal[B tensor.Backend](shape tensor.Shape, dtype tensor.DataType, rng *rand.Rand, backend B) *tensor.Tensor[B] {
	return nn.Normal(shape, dtype, rng, backend)
}
