package nn

import "github.com/pkg/errors"

// Error kinds reported by the attention block. Returned errors wrap one of
// these and can be matched with errors.Is.
var (
	// ErrInvalidConfig reports a configuration that cannot build a module,
	// e.g. d_model not divisible by the number of heads.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrShapeMismatch reports an input or state tensor with the wrong shape.
	ErrShapeMismatch = errors.New("shape mismatch")
)
