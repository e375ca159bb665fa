package features

import (
	"fmt"
	"strings"
)

// Vector is a fixed-schema ordered set of named numeric features. Models
// consume values aligned to the exact schema they were trained with, so a
// vector is always reordered through Align before it reaches an estimator.
type Vector struct {
	names  []string
	values []float64
}

// NewVector builds a vector from parallel name/value slices.
func NewVector(names []string, values []float64) (Vector, error) {
	if len(names) != len(values) {
		return Vector{}, fmt.Errorf("feature vector: %d names but %d values", len(names), len(values))
	}
	v := Vector{
		names:  append([]string(nil), names...),
		values: append([]float64(nil), values...),
	}
	return v, nil
}

// Names returns the feature names in order.
func (v Vector) Names() []string {
	return append([]string(nil), v.names...)
}

// Values returns the feature values in order.
func (v Vector) Values() []float64 {
	return append([]float64(nil), v.values...)
}

// Len returns the number of features.
func (v Vector) Len() int { return len(v.names) }

// Get returns the value for a named feature.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.names {
		if n == name {
			return v.values[i], true
		}
	}
	return 0, false
}

// Align selects and reorders the vector's values to match schema. The
// vector must carry exactly the schema's name set; anything else is a
// training/inference skew and fails with a SchemaError rather than being
// silently reordered or dropped.
func (v Vector) Align(schema []string) ([]float64, error) {
	if len(v.names) != len(schema) {
		return nil, &SchemaError{Want: schema, Got: v.names}
	}
	out := make([]float64, len(schema))
	for i, name := range schema {
		val, ok := v.Get(name)
		if !ok {
			return nil, &SchemaError{Want: schema, Got: v.names}
		}
		out[i] = val
	}
	return out, nil
}

// SchemaError reports a feature vector whose name set does not match the
// schema a model was trained with.
type SchemaError struct {
	Want []string
	Got  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("feature schema mismatch: want [%s], got [%s]",
		strings.Join(e.Want, " "), strings.Join(e.Got, " "))
}
