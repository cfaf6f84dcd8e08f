package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawValue is a measurement value as received from the producer. It is
// either a finite number or invalid (missing, non-numeric, unparseable).
// Invalid values never fail decoding; consumers decide how to degrade.
type RawValue struct {
	value float64
	valid bool
}

// NumericRaw wraps a number. NaN and infinities are invalid.
func NumericRaw(v float64) RawValue {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return RawValue{}
	}
	return RawValue{value: v, valid: true}
}

// InvalidRaw returns a RawValue carrying no usable number.
func InvalidRaw() RawValue { return RawValue{} }

// ParseRawValue converts a loosely typed value into a RawValue.
// Strings accept a decimal comma and a trailing percent sign.
func ParseRawValue(v any) RawValue {
	switch x := v.(type) {
	case nil:
		return RawValue{}
	case RawValue:
		return x
	case float64:
		return NumericRaw(x)
	case float32:
		return NumericRaw(float64(x))
	case int:
		return NumericRaw(float64(x))
	case int64:
		return NumericRaw(float64(x))
	case int32:
		return NumericRaw(float64(x))
	case json.Number:
		return parseRawString(x.String())
	case string:
		return parseRawString(x)
	default:
		return RawValue{}
	}
}

func parseRawString(s string) RawValue {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return RawValue{}
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return RawValue{}
	}
	return NumericRaw(f)
}

// Float64 returns the number and whether it is usable.
func (r RawValue) Float64() (float64, bool) { return r.value, r.valid }

// Valid reports whether r carries a usable number.
func (r RawValue) Valid() bool { return r.valid }

// MarshalJSON encodes invalid values as null.
func (r RawValue) MarshalJSON() ([]byte, error) {
	if !r.valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (r *RawValue) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*r = ParseRawValue(v)
	return nil
}
