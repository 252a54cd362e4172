package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Capitalize upper-cases the first letter of s and keeps the rest untouched.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	// Casers are stateful, so each call gets its own.
	return cases.Upper(language.Und).String(string(r)) + s[size:]
}

// NamespaceFor returns the injected handler namespace name for a module.
func NamespaceFor(module string) string {
	return InjectedPrefix + Capitalize(module)
}

// ParamsFromMap converts an object into parameters. Keys are sorted so that
// the resulting wire payload is deterministic.
func ParamsFromMap(m map[string]any) []Param {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]Param, 0, len(keys))
	for _, k := range keys {
		params = append(params, NewParam(k, m[k]))
	}
	return params
}

// EncodeInjectedPayload builds the JSON object handed to an injected handler.
// Parameter order is preserved and Null parameters are omitted. A repeated
// name keeps its first position and its last value.
func EncodeInjectedPayload(params []Param) ([]byte, error) {
	var (
		names  []string
		values = make(map[string][]byte)
	)
	for _, p := range params {
		if p.IsNull() {
			continue
		}
		raw, err := json.Marshal(p.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode parameter '%s': %w", p.Name, err)
		}
		if _, seen := values[p.Name]; !seen {
			names = append(names, p.Name)
		}
		values[p.Name] = raw
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(values[name])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeInjectedPayload parses an injected handler payload back into ordered
// parameters.
func DecodeInjectedPayload(payload []byte) ([]Param, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))

	tok, err := dec.Token()
	if err != nil {
		return nil, &PayloadError{Payload: string(payload), Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &PayloadError{Payload: string(payload), Err: fmt.Errorf("expected object, got %v", tok)}
	}

	var params []Param
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &PayloadError{Payload: string(payload), Err: err}
		}
		name, ok := tok.(string)
		if !ok {
			return nil, &PayloadError{Payload: string(payload), Err: fmt.Errorf("expected key, got %v", tok)}
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, &PayloadError{Payload: string(payload), Err: err}
		}
		params = append(params, Param{Name: name, Value: value})
	}
	return params, nil
}

// EncodeSchemeURL builds the navigation URL for a call:
// <module-or-mmsdk>://<action>[?k=v&...].
func EncodeSchemeURL(module, action string, params []Param) (string, error) {
	scheme := module
	if scheme == "" {
		scheme = DefaultScheme
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(action)

	added := 0
	for _, p := range params {
		if p.IsNull() {
			continue
		}
		value, err := formatValue(p.Value)
		if err != nil {
			return "", fmt.Errorf("failed to encode parameter '%s': %w", p.Name, err)
		}
		if added == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(EncodeURIComponent(p.Name))
		b.WriteByte('=')
		b.WriteString(EncodeURIComponent(value))
		added++
	}
	return b.String(), nil
}

// DecodeSchemeURL parses a navigation URL produced by EncodeSchemeURL.
// Parameter values are returned as strings in their original order.
func DecodeSchemeURL(raw string) (Call, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return Call{}, &SchemeURLError{URL: raw, Message: "missing scheme"}
	}

	action, query, _ := strings.Cut(rest, "?")
	if action == "" {
		return Call{}, &SchemeURLError{URL: raw, Message: "missing action"}
	}

	call := Call{Module: scheme, Action: action}
	if scheme == DefaultScheme {
		call.Module = ModuleGeneric
	}

	if query == "" {
		return call, nil
	}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(k)
		if err != nil {
			return Call{}, &SchemeURLError{URL: raw, Message: "malformed parameter name", Err: err}
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return Call{}, &SchemeURLError{URL: raw, Message: "malformed parameter value", Err: err}
		}
		call.Params = append(call.Params, Param{Name: name, Value: value})
	}
	return call, nil
}

var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes s the way browsers encode URI components.
func EncodeURIComponent(s string) string {
	return uriComponentUnescapes.Replace(url.QueryEscape(s))
}

// formatValue renders a parameter value as its URL string form. Object-like
// values are JSON-encoded.
func formatValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return formatNumber(t), nil
	case float32:
		return formatNumber(float64(t)), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case json.Number:
		return t.String(), nil
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return fmt.Sprint(v), nil
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
