package nn

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/mha/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [rows, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [rows, out_features]
//
// Weight and bias are initialized from U(-1/sqrt(in), 1/sqrt(in)), matching
// PyTorch's nn.Linear.
//
// Example:
//
//	backend := cpu.New()
//	rng := rand.New(rand.NewSource(0))
//	layer := nn.NewLinear(32, 32, tensor.Float16, rng, backend)
//
//	input := tensor.Randn(tensor.Shape{3, 32}, tensor.Float16, rng, backend)
//	output := layer.Forward(input) // shape: [3, 32]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	dtype       tensor.DataType
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features]
	backend     B
}

// NewLinear creates a new Linear layer with parameters stored at dtype.
//
// Parameters:
//   - inFeatures: Number of input features
//   - outFeatures: Number of output features
//   - dtype: Parameter precision
//   - rng: Random source for initialization (nil uses a time-seeded source)
//   - backend: Backend to use for tensor operations
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, dtype tensor.DataType, rng *rand.Rand, backend B) *Linear[B] {
	rng = ensureRand(rng)

	weightTensor := LinearUniform(inFeatures, tensor.Shape{outFeatures, inFeatures}, dtype, rng, backend)
	biasTensor := LinearUniform(inFeatures, tensor.Shape{outFeatures}, dtype, rng, backend)

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		dtype:       dtype,
		weight:      NewParameter("weight", weightTensor),
		bias:        NewParameter("bias", biasTensor),
		backend:     backend,
	}
}

// Forward computes the output of the linear layer.
//
// Performs: y = x @ W.T + b
//
// W.T is a strided view of the weight; the backend multiplies it in place.
// Panics if input is not [rows, in_features] at the layer's dtype.
func (l *Linear[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	// Validate input shape
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [rows, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	// [rows, in_features] @ [in_features, out_features] = [rows, out_features]
	output := input.MatMul(l.weight.Tensor().T())

	// Bias [out_features] broadcast as [1, out_features]
	return output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// DType returns the parameter precision.
func (l *Linear[B]) DType() tensor.DataType {
	return l.dtype
}

// StateDict returns a map of parameter names to raw tensors.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
		"bias":   l.bias.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
//
// Tensors must match the layer's shapes and dtype exactly; nothing is cast.
// Both tensors are validated before either is copied, and data is copied, so
// later changes to stateDict do not affect the layer.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := l.validateStateDict(stateDict); err != nil {
		return err
	}
	copyParameter(l.weight, stateDict["weight"])
	copyParameter(l.bias, stateDict["bias"])
	return nil
}

func (l *Linear[B]) validateStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := checkParameter(l.weight, stateDict["weight"]); err != nil {
		return err
	}
	return checkParameter(l.bias, stateDict["bias"])
}

// checkParameter reports whether src can be loaded into p.
func checkParameter[B tensor.Backend](p *Parameter[B], src *tensor.RawTensor) error {
	dst := p.Tensor().Raw()
	if src == nil {
		return errors.Wrapf(ErrShapeMismatch, "missing %s in state dict", p.Name())
	}
	if !src.Shape().Equal(dst.Shape()) {
		return errors.Wrapf(ErrShapeMismatch, "%s: expected shape %v, got %v", p.Name(), dst.Shape(), src.Shape())
	}
	if src.DType() != dst.DType() {
		return errors.Wrapf(ErrInvalidConfig, "%s: expected dtype %s, got %s", p.Name(), dst.DType(), src.DType())
	}
	return nil
}

func copyParameter[B tensor.Backend](p *Parameter[B], src *tensor.RawTensor) {
	if !src.IsContiguous() {
		src = src.Clone()
	}
	copy(p.Tensor().Raw().Data(), src.Data())
}
