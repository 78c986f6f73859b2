// Package metric computes derived performance metrics from raw counts.
//
// Every computation returns a Value rather than a bare float so that
// undefined results (division by zero) propagate as "no data" instead of
// NaN, Infinity, or a silently coerced zero.
package metric

import (
	"encoding/json"
	"fmt"
)

// Value is a derived metric that is either a number or Null. The zero value
// is Null.
type Value struct {
	v     float64
	valid bool
}

// From wraps a concrete metric value.
func From(v float64) Value {
	return Value{v: v, valid: true}
}

// Null is the undefined metric value.
func Null() Value {
	return Value{}
}

// Valid reports whether the value is defined.
func (v Value) Valid() bool { return v.valid }

// Float returns the numeric value and whether it is defined.
func (v Value) Float() (float64, bool) { return v.v, v.valid }

// Or returns the numeric value, or fallback when undefined.
func (v Value) Or(fallback float64) float64 {
	if v.valid {
		return v.v
	}
	return fallback
}

// String renders the value for table output; Null renders as "-".
func (v Value) String() string {
	if !v.valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", v.v)
}

// MarshalJSON encodes the value as a JSON number, or null when undefined.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes a JSON number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = From(f)
	return nil
}
