package tensor

// ============================================================================
// Scalar Operations
// ============================================================================

// MulScalar multiplies each element by a scalar value.
//
// Example:
//
//	scaled := scores.MulScalar(0.5)
func (t *Tensor[B]) MulScalar(scalar float64) *Tensor[B] {
	result := t.backend.MulScalar(t.raw, scalar)
	return New(result, t.backend)
}

// DivScalar divides each element by a scalar value.
//
// Example:
//
//	scaled := scores.DivScalar(math.Sqrt(float64(headDim)))
func (t *Tensor[B]) DivScalar(scalar float64) *Tensor[B] {
	result := t.backend.DivScalar(t.raw, scalar)
	return New(result, t.backend)
}

// ============================================================================
// Activation Functions
// ============================================================================

// Softmax computes the softmax function along the specified dimension.
//
// Softmax(x_i) = exp(x_i - max) / sum(exp(x_j - max)) for all j in dimension.
// Supports negative dimension indexing (-1 = last dimension).
//
// Example:
//
//	weights := scores.Softmax(-1) // each row sums to 1
func (t *Tensor[B]) Softmax(dim int) *Tensor[B] {
	result := t.backend.Softmax(t.raw, dim)
	return New(result, t.backend)
}

// ============================================================================
// Type Conversion
// ============================================================================

// Cast returns a new tensor converted to dtype. The receiver is never modified;
// when dtype already matches, the receiver itself is returned.
//
// Example:
//
//	half := x.Cast(Float16)
func (t *Tensor[B]) Cast(dtype DataType) *Tensor[B] {
	if t.DType() == dtype {
		return t
	}
	result := t.backend.Cast(t.raw, dtype)
	return New(result, t.backend)
}
