package nn

import (
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/mha/internal/tensor"
)

// Projection names, matching the attribute names of the PyTorch module.
const (
	queryProjection  = "W_q"
	keyProjection    = "W_k"
	valueProjection  = "W_v"
	outputProjection = "W_o"
)

// MultiHeadAttention implements multi-head self-attention and exposes every
// intermediate of the computation.
//
// Architecture:
//
//	MHA(x) = Concat(head_1, ..., head_h) * W_O
//	head_i = softmax(Q_i K_i^T / sqrt(d_head)) V_i,  Q = x W_Q, K = x W_K, V = x W_V
//
// There is no mask, no dropout and no cross-attention: query, key and value
// are all projections of the same input.
//
// Example:
//
//	cfg := nn.DefaultMHAConfig()
//	cfg.DType = tensor.Float16
//	mha, err := nn.NewMultiHeadAttention(cfg, backend)
//	out, err := mha.Forward(x) // x: [batch, seq, 32]
//	out.Weights                // [batch, 4, seq, seq]
type MultiHeadAttention[B tensor.Backend] struct {
	WQ *Linear[B] // Query projection [d_model, d_model]
	WK *Linear[B] // Key projection [d_model, d_model]
	WV *Linear[B] // Value projection [d_model, d_model]
	WO *Linear[B] // Output projection [d_model, d_model]

	config  MHAConfig
	headDim int
	backend B
}

// AttentionOutputs holds the intermediates of one Forward call.
//
// Every tensor is in the block's DataType and is freshly computed; nothing is
// shared with a later call.
type AttentionOutputs[B tensor.Backend] struct {
	Queries *tensor.Tensor[B] // [batch, heads, seq, d_head]
	Scores  *tensor.Tensor[B] // Q @ K^T before scaling [batch, heads, seq, seq]
	Weights *tensor.Tensor[B] // softmax(scores / sqrt(d_head)) [batch, heads, seq, seq]
	Heads   *tensor.Tensor[B] // weights @ V [batch, heads, seq, d_head]
	Concat  *tensor.Tensor[B] // heads merged back [batch, seq, d_model]
	Output  *tensor.Tensor[B] // W_o(concat) [batch, seq, d_model]
}

// Tuple returns the outputs in the order (queries, scores, weights, heads,
// concat, output).
func (o *AttentionOutputs[B]) Tuple() []*tensor.Tensor[B] {
	return []*tensor.Tensor[B]{o.Queries, o.Scores, o.Weights, o.Heads, o.Concat, o.Output}
}

// OutputNames lists the names of the tensors returned by Tuple, in order.
func OutputNames() []string {
	return []string{"queries", "scores", "weights", "heads", "concat", "output"}
}

// NewMultiHeadAttention creates a new multi-head attention block.
//
// The config is validated before any parameter is allocated; errors wrap
// ErrInvalidConfig. Projections are drawn from cfg.Rand in the order
// W_q, W_k, W_v, W_o.
//
// Example:
//
//	mha, err := nn.NewMultiHeadAttention(nn.MHAConfig{NumHeads: 4, DModel: 32, DType: tensor.Float16}, backend)
//	// d_head = 8
func NewMultiHeadAttention[B tensor.Backend](cfg MHAConfig, backend B) (*MultiHeadAttention[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "multi-head attention")
	}

	rng := ensureRand(cfg.Rand)
	projection := func(name string) *Linear[B] {
		l := NewLinear(cfg.DModel, cfg.DModel, cfg.DType, rng, backend)
		l.weight.name = name + ".weight"
		l.bias.name = name + ".bias"
		return l
	}

	m := &MultiHeadAttention[B]{
		WQ:      projection(queryProjection),
		WK:      projection(keyProjection),
		WV:      projection(valueProjection),
		WO:      projection(outputProjection),
		config:  cfg,
		headDim: cfg.HeadDim(),
		backend: backend,
	}

	klog.V(1).Infof("multi-head attention: %d heads, d_model=%d, d_head=%d, dtype=%s, %d parameters on %s",
		cfg.NumHeads, cfg.DModel, m.headDim, cfg.DType, m.NumParameters(), backend.Name())
	return m, nil
}

// Forward computes self-attention over x and returns every intermediate.
//
// Args:
//   - x: Input tensor [batch, seq, d_model] in any floating precision
//
// An input in a different precision than the block is cast first; the cast
// copy is used for all later steps and x itself is never modified.
//
// Errors wrap ErrShapeMismatch when x is nil, not rank 3, or its last
// dimension is not d_model. No partial result is returned.
func (m *MultiHeadAttention[B]) Forward(x *tensor.Tensor[B]) (*AttentionOutputs[B], error) {
	if x == nil {
		return nil, errors.Wrap(ErrShapeMismatch, "multi-head attention: nil input")
	}
	shape := x.Shape()
	if len(shape) != 3 {
		return nil, errors.Wrapf(ErrShapeMismatch, "multi-head attention: expected input (batch, seq, %d), got rank %d shape %v",
			m.config.DModel, len(shape), shape)
	}
	if shape[2] != m.config.DModel {
		return nil, errors.Wrapf(ErrShapeMismatch, "multi-head attention: expected last dimension %d, got %d",
			m.config.DModel, shape[2])
	}

	if x.DType() != m.config.DType {
		klog.V(2).Infof("multi-head attention: casting input %v from %s to %s", shape, x.DType(), m.config.DType)
		x = x.Cast(m.config.DType)
	}

	batch, seq := shape[0], shape[1]

	// 1. Project and split into heads: [batch, heads, seq, d_head]
	q := m.projectHeads(x, m.WQ, batch, seq)
	k := m.projectHeads(x, m.WK, batch, seq)
	v := m.projectHeads(x, m.WV, batch, seq)

	// 2. Raw scores Q @ K^T: [batch, heads, seq, seq]
	scores := q.BatchMatMul(k.SwapAxes(-1, -2))

	// 3. Scaled, normalized over keys
	weights := scores.DivScalar(math.Sqrt(float64(m.headDim))).Softmax(-1)

	// 4. Per-head output: [batch, heads, seq, d_head]
	heads := weights.BatchMatMul(v)

	// 5. Merge heads: [batch, seq, heads, d_head] -> [batch, seq, d_model]
	concat := heads.Transpose(0, 2, 1, 3).Contiguous().Reshape(batch, seq, m.config.DModel)

	// 6. Output projection
	output := m.WO.Forward(concat.Reshape(batch*seq, m.config.DModel)).Reshape(batch, seq, m.config.DModel)

	klog.V(2).Infof("multi-head attention: forward %v -> %v", shape, output.Shape())

	return &AttentionOutputs[B]{
		Queries: q,
		Scores:  scores,
		Weights: weights,
		Heads:   heads,
		Concat:  concat,
		Output:  output,
	}, nil
}

// projectHeads applies linear to [batch, seq, d_model] input and returns the
// result split into heads as a [batch, heads, seq, d_head] view.
func (m *MultiHeadAttention[B]) projectHeads(
	input *tensor.Tensor[B],
	linear *Linear[B],
	batch, seq int,
) *tensor.Tensor[B] {
	// [batch, seq, d_model] -> [batch*seq, d_model]
	input2D := input.Contiguous().Reshape(batch*seq, m.config.DModel)

	projected := linear.Forward(input2D)

	// [batch*seq, d_model] -> [batch, seq, heads, d_head] -> [batch, heads, seq, d_head]
	return projected.Reshape(batch, seq, m.config.NumHeads, m.headDim).Transpose(0, 2, 1, 3)
}

// Parameters returns the weight and bias of W_q, W_k, W_v and W_o, in that order.
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 8)
	for _, l := range m.projections() {
		params = append(params, l.Parameters()...)
	}
	return params
}

// NumParameters returns the total number of parameter elements,
// 4 * (d_model^2 + d_model).
func (m *MultiHeadAttention[B]) NumParameters() int {
	return CountParameters[B](m)
}

// StateDict returns the parameters keyed W_q.weight, W_q.bias, ..., W_o.bias.
func (m *MultiHeadAttention[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, 8)
	for name, l := range m.namedProjections() {
		for key, raw := range l.StateDict() {
			stateDict[name+"."+key] = raw
		}
	}
	return stateDict
}

// LoadStateDict loads parameters saved by StateDict.
//
// Every entry is validated before anything is copied, so a failed load leaves
// the block unchanged. Shape errors wrap ErrShapeMismatch and dtype errors
// wrap ErrInvalidConfig.
func (m *MultiHeadAttention[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	subs := make(map[string]map[string]*tensor.RawTensor, 4)
	for name, l := range m.namedProjections() {
		sub := map[string]*tensor.RawTensor{
			"weight": stateDict[name+".weight"],
			"bias":   stateDict[name+".bias"],
		}
		if err := l.validateStateDict(sub); err != nil {
			return errors.WithMessage(err, "multi-head attention")
		}
		subs[name] = sub
	}

	for name, l := range m.namedProjections() {
		if err := l.LoadStateDict(subs[name]); err != nil {
			return errors.WithMessage(err, "multi-head attention")
		}
	}
	return nil
}

// Config returns the configuration the block was built with.
func (m *MultiHeadAttention[B]) Config() MHAConfig {
	return m.config
}

// HeadDim returns d_model / num_heads.
func (m *MultiHeadAttention[B]) HeadDim() int {
	return m.headDim
}

// NumHeads returns the number of attention heads.
func (m *MultiHeadAttention[B]) NumHeads() int {
	return m.config.NumHeads
}

// DModel returns the model dimension.
func (m *MultiHeadAttention[B]) DModel() int {
	return m.config.DModel
}

// DType returns the block's precision.
func (m *MultiHeadAttention[B]) DType() tensor.DataType {
	return m.config.DType
}

func (m *MultiHeadAttention[B]) projections() []*Linear[B] {
	return []*Linear[B]{m.WQ, m.WK, m.WV, m.WO}
}

func (m *MultiHeadAttention[B]) namedProjections() map[string]*Linear[B] {
	return map[string]*Linear[B]{
		queryProjection:  m.WQ,
		keyProjection:    m.WK,
		valueProjection:  m.WV,
		outputProjection: m.WO,
	}
}
