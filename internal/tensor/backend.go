package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Operations panic on misuse (wrong ranks, incompatible shapes); callers that
// accept user input validate it before reaching the backend.
type Backend interface {
	// Element-wise operations
	Add(a, b *RawTensor) *RawTensor // broadcasting addition
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	DivScalar(x *RawTensor, scalar float64) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
	// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
	// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Activation functions
	Softmax(x *RawTensor, dim int) *RawTensor // softmax along dimension

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor // zero-copy, contiguous input only
	Transpose(t *RawTensor, axes ...int) *RawTensor  // zero-copy strided view
	Contiguous(t *RawTensor) *RawTensor              // materialise logical order

	// Type conversion
	Cast(x *RawTensor, dtype DataType) *RawTensor // cast to different data type

	// Metadata
	Name() string
	Device() Device
}
