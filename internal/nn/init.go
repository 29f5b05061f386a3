package nn

import (
	"math"
	"math/rand"
	"time"

	"github.com/born-ml/mha/internal/tensor"
)

// LinearUniform initializes a tensor the way PyTorch's nn.Linear does.
//
// Values are drawn from U(-1/sqrt(fan_in), 1/sqrt(fan_in)); this is the bound
// kaiming_uniform_(a=sqrt(5)) reduces to for the weight, and the one nn.Linear
// uses directly for its bias.
//
// Parameters:
//   - fanIn: Number of input units
//   - shape: Shape of the tensor
//   - dtype: Storage precision
//   - rng: Random source
//   - backend: Backend to use for tensor creation
func LinearUniform[B tensor.Backend](fanIn int, shape tensor.Shape, dtype tensor.DataType, rng *rand.Rand, backend B) *tensor.Tensor[B] {
	bound := 1.0 / math.Sqrt(float64(fanIn))
	return tensor.Uniform(shape, dtype, -bound, bound, rng, backend)
}

// Normal initializes a tensor with values from N(0, 1).
func Normal[B tensor.Backend](shape tensor.Shape, dtype tensor.DataType, rng *rand.Rand, backend B) *tensor.Tensor[B] {
	return tensor.Randn(shape, dtype, rng, backend)
}

// ensureRand returns rng, or a time-seeded generator when rng is nil.
func ensureRand(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	//nolint:gosec // math/rand is appropriate for ML weight initialization
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
