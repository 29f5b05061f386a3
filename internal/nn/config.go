package nn

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/mha/internal/tensor"
)

// MHAConfig configures a MultiHeadAttention block.
type MHAConfig struct {
	NumHeads int             // Number of attention heads
	DModel   int             // Model dimension, divisible by NumHeads
	DType    tensor.DataType // Parameter and output precision
	Rand     *rand.Rand      // Initialization source (nil: time-seeded)
}

// DefaultMHAConfig returns the playground's block: 4 heads over d_model 32
// in float32.
func DefaultMHAConfig() MHAConfig {
	return MHAConfig{
		NumHeads: 4,
		DModel:   32,
		DType:    tensor.Float32,
	}
}

// HeadDim returns DModel / NumHeads.
func (c MHAConfig) HeadDim() int {
	if c.NumHeads <= 0 {
		return 0
	}
	return c.DModel / c.NumHeads
}

// Validate reports a configuration that cannot build a block.
// Returned errors wrap ErrInvalidConfig.
func (c MHAConfig) Validate() error {
	if c.NumHeads <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "num_heads must be positive, got %d", c.NumHeads)
	}
	if c.DModel <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "d_model must be positive, got %d", c.DModel)
	}
	if c.DModel%c.NumHeads != 0 {
		return errors.Wrapf(ErrInvalidConfig, "d_model (%d) must be divisible by num_heads (%d)", c.DModel, c.NumHeads)
	}
	if !c.DType.IsFloat() {
		return errors.Wrapf(ErrInvalidConfig, "unsupported dtype %s", c.DType)
	}
	return nil
}
