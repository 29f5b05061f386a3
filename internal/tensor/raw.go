package tensor

import (
	"fmt"
	"unsafe"

	"github.com/x448/float16"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor representation.
//
// The buffer holds NumElements values in storage order. Shape and strides map
// logical indices onto that storage, so a transposed view shares the buffer of
// its source with permuted strides.
type RawTensor struct {
	data   []byte   // Storage, NumElements * dtype.Size() bytes
	shape  Shape    // Tensor dimensions
	stride []int    // Element strides into data
	dtype  DataType // Runtime type information
	device Device   // Compute device
}

// NewRaw creates a new contiguous RawTensor with the given shape and type.
// Memory is allocated and zero-initialised.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.IsFloat() {
		return nil, fmt.Errorf("unsupported dtype %s", dtype)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// NewView returns a tensor sharing src's storage with a different shape and strides.
//
// The caller is responsible for the strides addressing only elements inside
// the storage of src; backends use this for zero-copy reshape and transpose.
func NewView(src *RawTensor, shape Shape, strides []int) *RawTensor {
	if len(shape) != len(strides) {
		panic(fmt.Sprintf("view: shape %v and strides %v have different rank", shape, strides))
	}
	return &RawTensor{
		data:   src.data,
		shape:  shape.Clone(),
		stride: append([]int(nil), strides...),
		dtype:  src.dtype,
		device: src.device,
	}
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's element strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

// IsContiguous reports whether storage order equals logical row-major order.
// Dimensions of size 1 are ignored, since their stride is never used.
func (r *RawTensor) IsContiguous() bool {
	expected := 1
	for i := len(r.shape) - 1; i >= 0; i-- {
		if r.shape[i] == 1 {
			continue
		}
		if r.stride[i] != expected {
			return false
		}
		expected *= r.shape[i]
	}
	return true
}

// AsFloat16 interprets the storage as []float16.Float16.
// Panics if the tensor's dtype is not Float16.
func (r *RawTensor) AsFloat16() []float16.Float16 {
	if r.dtype != Float16 {
		panic(fmt.Sprintf("tensor dtype is %s, not float16", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float16.Float16)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat32 interprets the storage as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 interprets the storage as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Float64s returns a copy of the elements in logical (row-major) order,
// widened to float64. Works for views as well as contiguous tensors.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	read := r.reader()
	WalkStrided(r.shape, r.stride, func(i, offset int) {
		out[i] = read(offset)
	})
	return out
}

// Float64At returns the element at the given logical indices widened to float64.
// Panics if indices are out of bounds.
func (r *RawTensor) Float64At(indices ...int) float64 {
	if len(indices) != len(r.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(r.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= r.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, r.shape[i]))
		}
		offset += idx * r.stride[i]
	}
	return r.reader()(offset)
}

// Clone creates a deep, contiguous copy of the RawTensor.
func (r *RawTensor) Clone() *RawTensor {
	out, err := NewRaw(r.shape, r.dtype, r.device)
	if err != nil {
		panic(fmt.Sprintf("clone: %v", err))
	}
	if r.IsContiguous() {
		copy(out.data, r.data)
		return out
	}
	size := r.dtype.Size()
	WalkStrided(r.shape, r.stride, func(i, offset int) {
		copy(out.data[i*size:(i+1)*size], r.data[offset*size:(offset+1)*size])
	})
	return out
}

// reader returns a function reading one storage element as float64.
func (r *RawTensor) reader() func(offset int) float64 {
	switch r.dtype {
	case Float16:
		data := r.AsFloat16()
		return func(offset int) float64 { return float64(data[offset].Float32()) }
	case Float32:
		data := r.AsFloat32()
		return func(offset int) float64 { return float64(data[offset]) }
	case Float64:
		data := r.AsFloat64()
		return func(offset int) float64 { return data[offset] }
	default:
		panic(fmt.Sprintf("unsupported dtype %s", r.dtype))
	}
}

// WalkStrided calls fn for every logical index of shape in row-major order,
// passing the flat logical index and the storage offset given by strides.
func WalkStrided(shape Shape, strides []int, fn func(logical, offset int)) {
	n := shape.NumElements()
	if len(shape) == 0 {
		fn(0, 0)
		return
	}

	idx := make([]int, len(shape))
	offset := 0
	for logical := 0; logical < n; logical++ {
		fn(logical, offset)

		// Advance the multi-index like an odometer, keeping offset in sync.
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			offset += strides[d]
			if idx[d] < shape[d] {
				break
			}
			offset -= idx[d] * strides[d]
			idx[d] = 0
		}
	}
}
