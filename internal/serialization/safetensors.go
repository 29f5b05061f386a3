package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/born-ml/mha/internal/tensor"
)

const metadataKey = "__metadata__"

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// File is a decoded SafeTensors file.
type File struct {
	Metadata map[string]string
	Tensors  map[string]*tensor.RawTensor
}

// Names returns the tensor names of f in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Tensors))
	for name := range f.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteFile writes stateDict to path in SafeTensors format.
func WriteFile(path string, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if err := Write(file, stateDict, metadata); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	return errors.Wrap(file.Close(), "failed to close file")
}

// Write encodes stateDict to w.
//
// Tensors are written in alphabetical order by name. Strided views are
// written in logical order.
func Write(w io.Writer, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]interface{}, len(names)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}

	data := make([][]byte, len(names))
	var offset int64
	for i, name := range names {
		raw := stateDict[name]
		dtype, err := dtypeToSafeTensors(raw.DType())
		if err != nil {
			return errors.WithMessagef(err, "tensor %s", name)
		}
		if !raw.IsContiguous() {
			raw = raw.Clone()
		}
		data[i] = raw.Data()[:raw.ByteSize()]

		shape := make([]int64, len(raw.Shape()))
		for j, dim := range raw.Shape() {
			shape[j] = int64(dim)
		}
		size := int64(len(data[i]))
		header[name] = SafeTensorHeader{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return errors.Wrap(err, "failed to write header size")
	}
	if _, err := w.Write(headerJSON); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for i, name := range names {
		if _, err := w.Write(data[i]); err != nil {
			return errors.Wrapf(err, "failed to write tensor %s", name)
		}
	}
	return nil
}

// ReadFile reads a SafeTensors file from path.
func ReadFile(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() {
		_ = file.Close()
	}()
	return Read(file)
}

// Read decodes a SafeTensors stream into CPU tensors.
func Read(r io.Reader) (*File, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, errors.Wrap(err, "failed to read header size")
	}
	if headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes, max %d", headerSize, MaxHeaderSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &entries); err != nil {
		return nil, errors.Wrapf(ErrInvalidHeader, "failed to parse header JSON: %v", err)
	}

	file := &File{Tensors: make(map[string]*tensor.RawTensor, len(entries))}
	headers := make(map[string]SafeTensorHeader, len(entries))
	metas := make([]TensorMeta, 0, len(entries))
	for name, entry := range entries {
		if name == metadataKey {
			if err := json.Unmarshal(entry, &file.Metadata); err != nil {
				return nil, errors.Wrapf(ErrInvalidHeader, "metadata: %v", err)
			}
			continue
		}
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}
		var h SafeTensorHeader
		if err := json.Unmarshal(entry, &h); err != nil {
			return nil, errors.Wrapf(ErrInvalidHeader, "tensor %q: %v", name, err)
		}
		headers[name] = h
		metas = append(metas, TensorMeta{
			Name:   name,
			Offset: h.DataOffsets[0],
			Size:   h.DataOffsets[1] - h.DataOffsets[0],
		})
	}

	var data bytes.Buffer
	if _, err := io.Copy(&data, r); err != nil {
		return nil, errors.Wrap(err, "failed to read tensor data")
	}
	if err := ValidateTensorOffsets(metas, int64(data.Len())); err != nil {
		return nil, err
	}

	for name, h := range headers {
		raw, err := decodeTensor(name, h, data.Bytes())
		if err != nil {
			return nil, err
		}
		file.Tensors[name] = raw
	}
	return file, nil
}

func decodeTensor(name string, h SafeTensorHeader, data []byte) (*tensor.RawTensor, error) {
	dtype, err := dtypeFromSafeTensors(h.DType)
	if err != nil {
		return nil, errors.WithMessagef(err, "tensor %s", name)
	}

	shape := make(tensor.Shape, len(h.Shape))
	want := int64(dtype.Size())
	for i, dim := range h.Shape {
		if dim <= 0 {
			return nil, &ValidationError{Kind: ErrInvalidHeader, Tensor: name, Details: "non-positive dimension"}
		}
		if dim > math.MaxInt/want {
			return nil, &ValidationError{
				Kind:    ErrInvalidHeader,
				Tensor:  name,
				Details: fmt.Sprintf("shape %v of %s overflows", h.Shape, dtype),
			}
		}
		want *= dim
		shape[i] = int(dim)
	}

	size := h.DataOffsets[1] - h.DataOffsets[0]
	if size != want {
		return nil, &ValidationError{
			Kind:    ErrInvalidHeader,
			Tensor:  name,
			Details: fmt.Sprintf("data is %d bytes, shape %v of %s needs %d", size, shape, dtype, want),
		}
	}

	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, errors.WithMessagef(err, "tensor %s", name)
	}
	copy(raw.Data(), data[h.DataOffsets[0]:h.DataOffsets[1]])
	return raw, nil
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float16:
		return "F16", nil
	case tensor.Float32:
		return "F32", nil
	case tensor.Float64:
		return "F64", nil
	default:
		return "", errors.Wrapf(ErrUnsupportedDType, "%s", dt)
	}
}

func dtypeFromSafeTensors(s string) (tensor.DataType, error) {
	switch s {
	case "F16":
		return tensor.Float16, nil
	case "F32":
		return tensor.Float32, nil
	case "F64":
		return tensor.Float64, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedDType, "%q", s)
	}
}
