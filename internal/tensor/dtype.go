// Package tensor provides the core tensor types and operations for the attention playground.
package tensor

import (
	"fmt"
	"strings"
)

// DataType represents runtime type information for tensors.
//
// Precision is a runtime property so that a module configured for one
// precision can accept (and cast) inputs in another.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Float16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float16:
		return 2
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// IsFloat reports whether dt is one of the supported floating point types.
func (dt DataType) IsFloat() bool {
	switch dt {
	case Float16, Float32, Float64:
		return true
	default:
		return false
	}
}

// ParseDataType converts a user-facing name into a DataType.
//
// Accepted names (case-insensitive): float16, half, fp16, float32, float, fp32,
// float64, double, fp64.
func ParseDataType(name string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "float16", "half", "fp16", "f16":
		return Float16, nil
	case "float32", "float", "fp32", "f32":
		return Float32, nil
	case "float64", "double", "fp64", "f64":
		return Float64, nil
	default:
		return 0, fmt.Errorf("unknown data type %q", name)
	}
}
