package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mha/internal/backend/cpu"
	"github.com/born-ml/mha/internal/nn"
	"github.com/born-ml/mha/internal/tensor"
)

// encodeRaw builds a SafeTensors stream from a hand-written header.
func encodeRaw(t *testing.T, header map[string]interface{}, data []byte) *bytes.Reader {
	t.Helper()
	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(headerJSON))))
	buf.Write(headerJSON)
	buf.Write(data)
	return bytes.NewReader(buf.Bytes())
}

func TestWriteReadFile_MultiHeadAttention(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "mha.safetensors")

	for _, dtype := range []tensor.DataType{tensor.Float16, tensor.Float32, tensor.Float64} {
		t.Run(dtype.String(), func(t *testing.T) {
			cfg := nn.MHAConfig{NumHeads: 2, DModel: 8, DType: dtype, Rand: rand.New(rand.NewSource(1))}
			src, err := nn.NewMultiHeadAttention(cfg, backend)
			require.NoError(t, err)

			meta := map[string]string{"format": "pt", "num_heads": "2"}
			require.NoError(t, WriteFile(path, src.StateDict(), meta))

			file, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, meta, file.Metadata)
			assert.Equal(t, []string{
				"W_k.bias", "W_k.weight", "W_o.bias", "W_o.weight",
				"W_q.bias", "W_q.weight", "W_v.bias", "W_v.weight",
			}, file.Names())

			cfg.Rand = rand.New(rand.NewSource(2))
			dst, err := nn.NewMultiHeadAttention(cfg, backend)
			require.NoError(t, err)
			require.NoError(t, dst.LoadStateDict(file.Tensors))

			x := tensor.Randn(tensor.Shape{1, 3, 8}, dtype, rand.New(rand.NewSource(3)), backend)
			want, err := src.Forward(x)
			require.NoError(t, err)
			got, err := dst.Forward(x)
			require.NoError(t, err)
			assert.Equal(t, want.Output.Float64s(), got.Output.Float64s())
		})
	}
}

func TestWrite_Layout(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromFloat64s([]float64{1, 2}, tensor.Shape{2}, tensor.Float16, backend)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]*tensor.RawTensor{"x": x.Raw()}, nil))

	raw := buf.Bytes()
	headerSize := binary.LittleEndian.Uint64(raw[:8])
	assert.JSONEq(t, `{"x":{"dtype":"F16","shape":[2],"data_offsets":[0,4]}}`, string(raw[8:8+headerSize]))
	// 1.0 and 2.0 in IEEE 754 half precision, little-endian.
	assert.Equal(t, []byte{0x00, 0x3c, 0x00, 0x40}, raw[8+headerSize:])
}

func TestWrite_StridedViewInLogicalOrder(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromFloat64s([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.Float32, backend)
	require.NoError(t, err)
	view := x.T()
	require.False(t, view.IsContiguous())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]*tensor.RawTensor{"w": view.Raw()}, nil))

	file, err := Read(&buf)
	require.NoError(t, err)
	got := file.Tensors["w"]
	assert.True(t, got.Shape().Equal(tensor.Shape{3, 2}))
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, got.Float64s())
	assert.Nil(t, file.Metadata)
}

func TestWrite_InvalidName(t *testing.T) {
	backend := cpu.New()
	x := tensor.Zeros(tensor.Shape{1}, tensor.Float32, backend)

	for _, name := range []string{"", "../escape", "a/b", "nul\x00"} {
		err := Write(&bytes.Buffer{}, map[string]*tensor.RawTensor{name: x.Raw()}, nil)
		assert.True(t, errors.Is(err, ErrInvalidTensorName), "name %q: %v", name, err)
	}
}

func TestRead_Errors(t *testing.T) {
	entry := func(dtype string, shape []int64, begin, end int64) SafeTensorHeader {
		return SafeTensorHeader{DType: dtype, Shape: shape, DataOffsets: [2]int64{begin, end}}
	}

	tests := []struct {
		name   string
		header map[string]interface{}
		data   []byte
		want   error
	}{
		{
			name:   "out of bounds",
			header: map[string]interface{}{"a": entry("F32", []int64{4}, 0, 16)},
			data:   make([]byte, 8),
			want:   ErrOutOfBounds,
		},
		{
			name:   "negative offset",
			header: map[string]interface{}{"a": entry("F32", []int64{1}, -4, 0)},
			data:   make([]byte, 8),
			want:   ErrOutOfBounds,
		},
		{
			name: "overlap",
			header: map[string]interface{}{
				"a": entry("F32", []int64{2}, 0, 8),
				"b": entry("F32", []int64{2}, 4, 12),
			},
			data: make([]byte, 12),
			want: ErrOffsetOverlap,
		},
		{
			name:   "unsupported dtype",
			header: map[string]interface{}{"a": entry("I32", []int64{1}, 0, 4)},
			data:   make([]byte, 4),
			want:   ErrUnsupportedDType,
		},
		{
			name:   "size does not match shape",
			header: map[string]interface{}{"a": entry("F64", []int64{1}, 0, 4)},
			data:   make([]byte, 4),
			want:   ErrInvalidHeader,
		},
		{
			name:   "element count overflows",
			header: map[string]interface{}{"a": entry("F32", []int64{4294967296, 1073741824}, 0, 0)},
			want:   ErrInvalidHeader,
		},
		{
			name:   "zero dimension",
			header: map[string]interface{}{"a": entry("F32", []int64{0}, 0, 0)},
			want:   ErrInvalidHeader,
		},
		{
			name:   "malformed entry",
			header: map[string]interface{}{"a": "not a tensor"},
			want:   ErrInvalidHeader,
		},
		{
			name:   "malformed metadata",
			header: map[string]interface{}{metadataKey: 7},
			want:   ErrInvalidHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Read(encodeRaw(t, tt.header, tt.data))
			assert.Nil(t, file)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRead_HeaderTooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(MaxHeaderSize+1)))

	_, err := Read(&buf)
	assert.True(t, errors.Is(err, ErrHeaderTooLarge))
}

func TestRead_Truncated(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{1, 2}))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(64)))
	buf.WriteString("{}")
	_, err = Read(&buf)
	assert.Error(t, err)

	var bad bytes.Buffer
	require.NoError(t, binary.Write(&bad, binary.LittleEndian, uint64(3)))
	bad.WriteString("{x}")
	_, err = Read(&bad)
	assert.True(t, errors.Is(err, ErrInvalidHeader))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.safetensors"))
	assert.Error(t, err)
}
