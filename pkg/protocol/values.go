package protocol

import (
	"encoding/json"
	"strconv"
)

// Calls arriving through the scheme transport carry every value as a string,
// while injected calls carry decoded JSON. These accessors accept both.

// String returns the named parameter as a string.
func (c Call) String(name string) (string, bool) {
	v, ok := c.Value(name)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return formatNumber(t), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// Number returns the named parameter as a float64.
func (c Call) Number(name string) (float64, bool) {
	v, ok := c.Value(name)
	if !ok {
		return 0, false
	}
	if s, isString := v.(string); isString {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return AsNumber(v)
}

// AsNumber reports whether v holds a numeric value and returns it as a float64.
// Strings are never numbers here.
func AsNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// Bool returns the named parameter as a bool.
func (c Call) Bool(name string) (bool, bool) {
	v, ok := c.Value(name)
	if !ok {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	}
	return false, false
}

// Object decodes the named parameter into out. String values are treated as
// JSON text.
func (c Call) Object(name string, out any) error {
	v, ok := c.Value(name)
	if !ok {
		return &PayloadError{Payload: name, Err: errMissing}
	}
	var raw []byte
	if s, isString := v.(string); isString {
		raw = []byte(s)
	} else {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, out)
}
