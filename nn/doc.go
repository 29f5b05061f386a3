// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the multi-head attention block and the layers it is built from.
//
// # Overview
//
// This package contains:
//   - MultiHeadAttention: Self-attention returning every intermediate
//   - Layers: Linear, Embedding
//   - Utilities: Module interface, Parameter, CountParameters
//   - Initialization: LinearUniform, Normal
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/mha/backend/cpu"
//	    "github.com/born-ml/mha/nn"
//	    "github.com/born-ml/mha/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(0))
//
//	    cfg := nn.DefaultMHAConfig()
//	    cfg.DType = tensor.Float16
//	    cfg.Rand = rng
//	    mha, err := nn.NewMultiHeadAttention(cfg, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    x := tensor.Randn(tensor.Shape{1, 3, 32}, tensor.Float16, rng, backend)
//	    out, err := mha.Forward(x)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(out.Weights.Shape()) // (1, 4, 3, 3)
//	}
//
// # Outputs
//
// Forward returns six tensors, in this order by Tuple:
//
//	queries  [batch, heads, seq, d_head]  projected and split queries
//	scores   [batch, heads, seq, seq]     Q K^T, before scaling
//	weights  [batch, heads, seq, seq]     softmax(scores / sqrt(d_head))
//	heads    [batch, heads, seq, d_head]  weights V
//	concat   [batch, seq, d_model]        heads merged back
//	output   [batch, seq, d_model]        output projection of concat
//
// # Errors
//
// Construction and Forward errors wrap ErrInvalidConfig or ErrShapeMismatch:
//
//	if errors.Is(err, nn.ErrShapeMismatch) {
//	    // input does not end in d_model
//	}
//
// # Parameter Management
//
// Access module parameters by qualified name:
//
//	for _, param := range mha.Parameters() {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
package nn
