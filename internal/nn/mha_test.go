package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mha/internal/backend/cpu"
	"github.com/born-ml/mha/internal/tensor"
)

var _ Module[*cpu.CPUBackend] = (*MultiHeadAttention[*cpu.CPUBackend])(nil)

func newTestMHA(t *testing.T, numHeads, dModel int, dtype tensor.DataType, seed int64) *MultiHeadAttention[*cpu.CPUBackend] {
	t.Helper()
	mha, err := NewMultiHeadAttention(MHAConfig{
		NumHeads: numHeads,
		DModel:   dModel,
		DType:    dtype,
		Rand:     rand.New(rand.NewSource(seed)),
	}, cpu.New())
	require.NoError(t, err)
	return mha
}

func randomInput(shape tensor.Shape, dtype tensor.DataType, seed int64) *tensor.Tensor[*cpu.CPUBackend] {
	return tensor.Randn(shape, dtype, rand.New(rand.NewSource(seed)), cpu.New())
}

func TestMHAConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MHAConfig
		wantErr bool
	}{
		{"default", DefaultMHAConfig(), false},
		{"single head", MHAConfig{NumHeads: 1, DModel: 32, DType: tensor.Float16}, false},
		{"head per feature", MHAConfig{NumHeads: 32, DModel: 32, DType: tensor.Float64}, false},
		{"not divisible", MHAConfig{NumHeads: 5, DModel: 32, DType: tensor.Float32}, true},
		{"zero heads", MHAConfig{NumHeads: 0, DModel: 32, DType: tensor.Float32}, true},
		{"negative d_model", MHAConfig{NumHeads: 4, DModel: -32, DType: tensor.Float32}, true},
		{"bad dtype", MHAConfig{NumHeads: 4, DModel: 32, DType: tensor.DataType(42)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewMultiHeadAttention(t *testing.T) {
	mha := newTestMHA(t, 4, 32, tensor.Float16, 0)

	assert.Equal(t, 8, mha.HeadDim())
	assert.Equal(t, 4, mha.NumHeads())
	assert.Equal(t, 32, mha.DModel())
	assert.Equal(t, tensor.Float16, mha.DType())
	assert.Equal(t, 4, mha.Config().NumHeads)

	for _, p := range mha.Parameters() {
		assert.Equal(t, tensor.Float16, p.Tensor().DType(), p.Name())
	}
}

func TestNewMultiHeadAttention_InvalidConfig(t *testing.T) {
	mha, err := NewMultiHeadAttention(MHAConfig{NumHeads: 5, DModel: 32, DType: tensor.Float32}, cpu.New())

	assert.Nil(t, mha)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "divisible")
}

func TestMultiHeadAttention_Parameters(t *testing.T) {
	mha := newTestMHA(t, 4, 32, tensor.Float32, 0)

	params := mha.Parameters()
	require.Len(t, params, 8)

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{
		"W_q.weight", "W_q.bias", "W_k.weight", "W_k.bias",
		"W_v.weight", "W_v.bias", "W_o.weight", "W_o.bias",
	}, names)

	assert.Equal(t, 4*(32*32+32), mha.NumParameters())
	assert.True(t, params[0].Tensor().Shape().Equal(tensor.Shape{32, 32}))
	assert.True(t, params[1].Tensor().Shape().Equal(tensor.Shape{32}))
}

func TestMultiHeadAttention_Init(t *testing.T) {
	mha := newTestMHA(t, 4, 32, tensor.Float64, 0)
	bound := 1 / math.Sqrt(32)

	for _, p := range mha.Parameters() {
		for _, v := range p.Tensor().Float64s() {
			assert.LessOrEqual(t, math.Abs(v), bound, p.Name())
		}
	}

	// Same seed, same parameters.
	again := newTestMHA(t, 4, 32, tensor.Float64, 0)
	assert.Equal(t, mha.WO.Weight().Tensor().Float64s(), again.WO.Weight().Tensor().Float64s())
}

// The concrete scenario: 4 heads, d_model 32, half precision, input (1, 3, 32).
func TestMultiHeadAttention_HalfPrecisionShapes(t *testing.T) {
	mha := newTestMHA(t, 4, 32, tensor.Float16, 1)
	x := randomInput(tensor.Shape{1, 3, 32}, tensor.Float16, 2)

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
	got := out.Tuple()
	require.Len(t, got, len(want))
	for i, tt := range got {
		assert.True(t, want[i].Equal(tt.Shape()), "%s: want %v, got %v", OutputNames()[i], want[i], tt.Shape())
		assert.Equal(t, tensor.Float16, tt.DType(), OutputNames()[i])
	}
}

func TestMultiHeadAttention_ShapeErrors(t *testing.T) {
	mha := newTestMHA(t, 4, 32, tensor.Float32, 0)

	tests := []struct {
		name  string
		shape tensor.Shape
	}{
		{"rank 2", tensor.Shape{3, 32}},
		{"rank 4", tensor.Shape{1, 1, 3, 32}},
		{"wrong features", tensor.Shape{1, 3, 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := mha.Forward(randomInput(tt.shape, tensor.Float32, 0))
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrShapeMismatch), "got %v", err)
		})
	}
}

func TestMultiHeadAttention_NilInput(t *testing.T) {
	mha := newTestMHA(t, 4, 32, tensor.Float32, 0)

	out, err := mha.Forward(nil)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrShapeMismatch), "got %v", err)
}

func TestMultiHeadAttention_WeightsAreDistributions(t *testing.T) {
	tests := []struct {
		dtype tensor.DataType
		tol   float64
	}{
		{tensor.Float64, 1e-5},
		{tensor.Float32, 1e-5},
		{tensor.Float16, 1e-2},
	}

	for _, tt := range tests {
		t.Run(tt.dtype.String(), func(t *testing.T) {
			mha := newTestMHA(t, 4, 32, tt.dtype, 3)
			out, err := mha.Forward(randomInput(tensor.Shape{2, 5, 32}, tt.dtype, 4))
			require.NoError(t, err)

			w := out.Weights
			for b := 0; b < 2; b++ {
				for h := 0; h < 4; h++ {
					for i := 0; i < 5; i++ {
						var sum float64
						for j := 0; j < 5; j++ {
							v := w.At(b, h, i, j)
							assert.GreaterOrEqual(t, v, 0.0)
							sum += v
						}
						assert.InDelta(t, 1.0, sum, tt.tol, "batch %d head %d row %d", b, h, i)
					}
				}
			}
		})
	}
}

func TestMultiHeadAttention_CastsInput(t *testing.T) {
	mha := newTestMHA(t, 4, 32, tensor.Float16, 5)
	x := randomInput(tensor.Shape{1, 3, 32}, tensor.Float32, 6)
	before := x.Float64s()

	out, err := mha.Forward(x)
	require.NoError(t, err)

	for i, tt := range out.Tuple() {
		assert.Equal(t, tensor.Float16, tt.DType(), OutputNames()[i])
	}
	assert.Equal(t, tensor.Float32, x.DType())
	assert.Equal(t, before, x.Float64s())

	// Same result as casting by hand.
	manual, err := mha.Forward(x.Cast(tensor.Float16))
	require.NoError(t, err)
	assert.Equal(t, manual.Output.Float64s(), out.Output.Float64s())
}

func TestMultiHeadAttention_Deterministic(t *testing.T) {
	mha := newTestMHA(t, 4, 32, tensor.Float32, 7)
	x := randomInput(tensor.Shape{1, 4, 32}, tensor.Float32, 8)

	first, err := mha.Forward(x)
	require.NoError(t, err)
	second, err := mha.Forward(x)
	require.NoError(t, err)

	for i := range first.Tuple() {
		assert.Equal(t, first.Tuple()[i].Float64s(), second.Tuple()[i].Float64s(), OutputNames()[i])
		assert.NotSame(t, first.Tuple()[i].Raw(), second.Tuple()[i].Raw())
	}
}

func TestMultiHeadAttention_PerturbationReachesEveryPosition(t *testing.T) {
	const seq, dModel = 4, 16
	mha := newTestMHA(t, 2, dModel, tensor.Float64, 9)

	values := randomInput(tensor.Shape{1, seq, dModel}, tensor.Float64, 10).Float64s()
	x, err := tensor.FromFloat64s(values, tensor.Shape{1, seq, dModel}, tensor.Float64, cpu.New())
	require.NoError(t, err)

	perturbed := append([]float64(nil), values...)
	for j := 0; j < dModel; j++ {
		perturbed[j] += 0.5 // position 0 only
	}
	xp, err := tensor.FromFloat64s(perturbed, tensor.Shape{1, seq, dModel}, tensor.Float64, cpu.New())
	require.NoError(t, err)

	base, err := mha.Forward(x)
	require.NoError(t, err)
	changed, err := mha.Forward(xp)
	require.NoError(t, err)

	for s := 0; s < seq; s++ {
		maxDiff := 0.0
		for j := 0; j < dModel; j++ {
			maxDiff = math.Max(maxDiff, math.Abs(base.Output.At(0, s, j)-changed.Output.At(0, s, j)))
		}
		assert.Greater(t, maxDiff, 1e-9, "position %d unaffected", s)
	}
}

func TestMultiHeadAttention_IdentityProjections(t *testing.T) {
	const numHeads, dModel = 2, 8
	mha := newTestMHA(t, numHeads, dModel, tensor.Float64, 11)
	backend := cpu.New()

	identity := make([]float64, dModel*dModel)
	for i := 0; i < dModel; i++ {
		identity[i*dModel+i] = 1
	}
	stateDict := make(map[string]*tensor.RawTensor)
	for _, name := range []string{"W_q", "W_k", "W_v", "W_o"} {
		w, err := tensor.FromFloat64s(identity, tensor.Shape{dModel, dModel}, tensor.Float64, backend)
		require.NoError(t, err)
		stateDict[name+".weight"] = w.Raw()
		stateDict[name+".bias"] = tensor.Zeros(tensor.Shape{dModel}, tensor.Float64, backend).Raw()
	}
	require.NoError(t, mha.LoadStateDict(stateDict))

	x := randomInput(tensor.Shape{2, 3, dModel}, tensor.Float64, 12)
	out, err := mha.Forward(x)
	require.NoError(t, err)

	headDim := dModel / numHeads
	for b := 0; b < 2; b++ {
		for h := 0; h < numHeads; h++ {
			for s := 0; s < 3; s++ {
				for d := 0; d < headDim; d++ {
					assert.InDelta(t, x.At(b, s, h*headDim+d), out.Queries.At(b, h, s, d), 1e-12)
				}
			}
		}
	}
	assertAllClose(t, out.Concat.Float64s(), out.Output.Float64s(), 1e-12)
}

func TestMultiHeadAttention_MatchesReference(t *testing.T) {
	const batch, seq, numHeads, dModel = 2, 5, 4, 16
	mha := newTestMHA(t, numHeads, dModel, tensor.Float64, 13)
	x := randomInput(tensor.Shape{batch, seq, dModel}, tensor.Float64, 14)

	out, err := mha.Forward(x)
	require.NoError(t, err)

	headDim := dModel / numHeads
	sd := mha.StateDict()
	xs := x.Float64s()

	for b := 0; b < batch; b++ {
		xb := mat.NewDense(seq, dModel, xs[b*seq*dModel:(b+1)*seq*dModel])
		q := referenceLinear(xb, sd["W_q.weight"], sd["W_q.bias"])
		k := referenceLinear(xb, sd["W_k.weight"], sd["W_k.bias"])
		v := referenceLinear(xb, sd["W_v.weight"], sd["W_v.bias"])

		concat := mat.NewDense(seq, dModel, nil)
		for h := 0; h < numHeads; h++ {
			lo, hi := h*headDim, (h+1)*headDim
			qh := q.Slice(0, seq, lo, hi)
			kh := k.Slice(0, seq, lo, hi)
			vh := v.Slice(0, seq, lo, hi)

			var scores mat.Dense
			scores.Mul(qh, kh.T())
			weights := referenceSoftmax(&scores, math.Sqrt(float64(headDim)))

			var heads mat.Dense
			heads.Mul(weights, vh)

			for i := 0; i < seq; i++ {
				for j := 0; j < seq; j++ {
					assert.InDelta(t, scores.At(i, j), out.Scores.At(b, h, i, j), 1e-10)
					assert.InDelta(t, weights.At(i, j), out.Weights.At(b, h, i, j), 1e-10)
				}
				for d := 0; d < headDim; d++ {
					assert.InDelta(t, q.At(i, lo+d), out.Queries.At(b, h, i, d), 1e-10)
					assert.InDelta(t, heads.At(i, d), out.Heads.At(b, h, i, d), 1e-10)
					concat.Set(i, lo+d, heads.At(i, d))
				}
			}
		}

		output := referenceLinear(concat, sd["W_o.weight"], sd["W_o.bias"])
		for i := 0; i < seq; i++ {
			for j := 0; j < dModel; j++ {
				assert.InDelta(t, concat.At(i, j), out.Concat.At(b, i, j), 1e-10)
				assert.InDelta(t, output.At(i, j), out.Output.At(b, i, j), 1e-10)
			}
		}
	}
}

func TestMultiHeadAttention_StateDictRoundTrip(t *testing.T) {
	src := newTestMHA(t, 4, 32, tensor.Float32, 15)
	dst := newTestMHA(t, 4, 32, tensor.Float32, 16)
	x := randomInput(tensor.Shape{1, 3, 32}, tensor.Float32, 17)

	stateDict := src.StateDict()
	assert.Len(t, stateDict, 8)
	require.NoError(t, dst.LoadStateDict(stateDict))

	want, err := src.Forward(x)
	require.NoError(t, err)
	got, err := dst.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, want.Output.Float64s(), got.Output.Float64s())

	// Loaded data is a copy.
	assert.NotSame(t, stateDict["W_q.weight"], dst.StateDict()["W_q.weight"])
}

func TestMultiHeadAttention_LoadStateDictErrors(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name    string
		mutate  func(map[string]*tensor.RawTensor)
		wantErr error
	}{
		{
			name:    "missing key",
			mutate:  func(sd map[string]*tensor.RawTensor) { delete(sd, "W_v.bias") },
			wantErr: ErrShapeMismatch,
		},
		{
			name: "wrong shape",
			mutate: func(sd map[string]*tensor.RawTensor) {
				sd["W_k.weight"] = tensor.Zeros(tensor.Shape{32, 16}, tensor.Float32, backend).Raw()
			},
			wantErr: ErrShapeMismatch,
		},
		{
			name: "wrong dtype",
			mutate: func(sd map[string]*tensor.RawTensor) {
				sd["W_o.bias"] = tensor.Zeros(tensor.Shape{32}, tensor.Float64, backend).Raw()
			},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mha := newTestMHA(t, 4, 32, tensor.Float32, 18)
			before := mha.WQ.Weight().Tensor().Float64s()

			sd := newTestMHA(t, 4, 32, tensor.Float32, 19).StateDict()
			tt.mutate(sd)

			err := mha.LoadStateDict(sd)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, before, mha.WQ.Weight().Tensor().Float64s(), "failed load must not modify parameters")
		})
	}
}

// referenceLinear computes x @ w.T + b with gonum.
func referenceLinear(x mat.Matrix, w, b *tensor.RawTensor) *mat.Dense {
	out, in := w.Shape()[0], w.Shape()[1]
	wd := mat.NewDense(out, in, w.Float64s())
	bias := b.Float64s()

	var y mat.Dense
	y.Mul(x, wd.T())
	rows, _ := y.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < out; j++ {
			y.Set(i, j, y.At(i, j)+bias[j])
		}
	}
	return &y
}

// referenceSoftmax returns softmax(scores / scale) along rows.
func referenceSoftmax(scores *mat.Dense, scale float64) *mat.Dense {
	rows, cols := scores.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		maxVal := math.Inf(-1)
		for j := range row {
			row[j] = scores.At(i, j) / scale
			maxVal = math.Max(maxVal, row[j])
		}
		var sum float64
		for j := range row {
			row[j] = math.Exp(row[j] - maxVal)
			sum += row[j]
		}
		for j := range row {
			out.Set(i, j, row[j]/sum)
		}
	}
	return out
}

func assertAllClose(t *testing.T, expected, actual []float64, tol float64) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], tol, "element %d", i)
	}
}
