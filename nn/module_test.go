// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mha/backend/cpu"
	"github.com/born-ml/mha/nn"
	"github.com/born-ml/mha/tensor"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	mha, err := nn.NewMultiHeadAttention(nn.MHAConfig{NumHeads: 2, DModel: 8, DType: tensor.Float32, Rand: rng}, backend)
	require.NoError(t, err)

	tests := []struct {
		name       string
		module     nn.Module[*cpu.Backend]
		wantParams int
		wantCount  int
	}{
		{
			name:       "Linear",
			module:     nn.NewLinear(10, 5, tensor.Float32, rng, backend),
			wantParams: 2,
			wantCount:  10*5 + 5,
		},
		{
			name:       "Embedding",
			module:     nn.NewEmbedding(7, 4, tensor.Float16, rng, backend),
			wantParams: 1,
			wantCount:  7 * 4,
		},
		{
			name:       "MultiHeadAttention",
			module:     mha,
			wantParams: 8,
			wantCount:  4 * (8*8 + 8),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.module.Parameters(), tt.wantParams)
			assert.Len(t, tt.module.StateDict(), tt.wantParams)
			assert.Equal(t, tt.wantCount, nn.CountParameters(tt.module))
			assert.NoError(t, tt.module.LoadStateDict(tt.module.StateDict()))
		})
	}
}

func TestParameter(t *testing.T) {
	backend := cpu.New()
	data := tensor.Zeros(tensor.Shape{3, 3}, tensor.Float16, backend)

	param := nn.NewParameter("test.weight", data)
	assert.Equal(t, "test.weight", param.Name())
	assert.Same(t, data, param.Tensor())
	assert.Equal(t, 9, param.NumElements())
	assert.Equal(t, 18, param.ByteSize())
}

func TestMultiHeadAttention_Public(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(0))

	cfg := nn.DefaultMHAConfig()
	cfg.DType = tensor.Float16
	cfg.Rand = rng
	mha, err := nn.NewMultiHeadAttention(cfg, backend)
	require.NoError(t, err)

	x := tensor.Randn(tensor.Shape{1, 3, 32}, tensor.Float16, rng, backend)
	out, err := mha.Forward(x)
	require.NoError(t, err)

	want := []tensor.Shape{
		{1, 4, 3, 8},
		{1, 4, 3, 3},
		{1, 4, 3, 3},
		{1, 4, 3, 8},
		{1, 3, 32},
		{1, 3, 32},
	}
	tuple := out.Tuple()
	require.Len(t, tuple, len(want))
	require.Len(t, nn.OutputNames(), len(want))
	for i, got := range tuple {
		assert.True(t, got.Shape().Equal(want[i]), "%s: got %v", nn.OutputNames()[i], got.Shape())
		assert.Equal(t, tensor.Float16, got.DType())
	}

	_, err = mha.Forward(tensor.Randn(tensor.Shape{1, 3, 16}, tensor.Float16, rng, backend))
	assert.True(t, errors.Is(err, nn.ErrShapeMismatch))

	_, err = nn.NewMultiHeadAttention(nn.MHAConfig{NumHeads: 5, DModel: 32, DType: tensor.Float16}, backend)
	assert.True(t, errors.Is(err, nn.ErrInvalidConfig))
}

func TestLinearUniform_Bound(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(3))

	w := nn.LinearUniform(16, tensor.Shape{64, 16}, tensor.Float64, rng, backend)
	for _, v := range w.Float64s() {
		assert.LessOrEqual(t, v, 0.25)
		assert.GreaterOrEqual(t, v, -0.25)
	}

	n := nn.Normal(tensor.Shape{4, 4}, tensor.Float32, rng, backend)
	assert.Equal(t, tensor.Float32, n.DType())
}

func TestSaveLoad(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "mha.safetensors")

	cfg := nn.MHAConfig{NumHeads: 2, DModel: 8, DType: tensor.Float16, Rand: rand.New(rand.NewSource(1))}
	src, err := nn.NewMultiHeadAttention(cfg, backend)
	require.NoError(t, err)
	require.NoError(t, nn.Save[*cpu.Backend](src, path, map[string]string{"format": "pt"}))

	cfg.Rand = rand.New(rand.NewSource(2))
	dst, err := nn.NewMultiHeadAttention(cfg, backend)
	require.NoError(t, err)
	metadata, err := nn.Load[*cpu.Backend](path, dst)
	require.NoError(t, err)
	assert.Equal(t, "pt", metadata["format"])
	assert.Equal(t, src.WQ.Weight().Tensor().Float64s(), dst.WQ.Weight().Tensor().Float64s())

	wider, err := nn.NewMultiHeadAttention(nn.MHAConfig{NumHeads: 2, DModel: 16, DType: tensor.Float16}, backend)
	require.NoError(t, err)
	_, err = nn.Load[*cpu.Backend](path, wider)
	assert.True(t, errors.Is(err, nn.ErrShapeMismatch))
}
