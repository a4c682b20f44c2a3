package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Arguments are the decoded arguments of a tool call. Numbers are kept as
// json.Number so integers survive decoding unchanged.
type Arguments map[string]any

// ParseArguments decodes a tool call's arguments string. An empty string
// yields empty arguments; anything other than a JSON object is an error.
func ParseArguments(s string) (Arguments, error) {
	if strings.TrimSpace(s) == "" {
		return Arguments{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var args Arguments
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("decoding tool call arguments: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decoding tool call arguments: trailing data after object")
	}
	if args == nil {
		return nil, fmt.Errorf("decoding tool call arguments: expected a JSON object")
	}
	return args, nil
}

// String returns the named argument if it is a string.
func (a Arguments) String(name string) (string, bool) {
	v, ok := a[name].(string)
	return v, ok
}

// Number returns the named argument if it is a number.
func (a Arguments) Number(name string) (float64, bool) {
	switch v := a[name].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	}
	return 0, false
}

// Integer returns the named argument if it is an integral number.
func (a Arguments) Integer(name string) (int64, bool) {
	switch v := a[name].(type) {
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// Bool returns the named argument if it is a boolean.
func (a Arguments) Bool(name string) (bool, bool) {
	v, ok := a[name].(bool)
	return v, ok
}

// Object returns the named argument if it is a JSON object.
func (a Arguments) Object(name string) (Arguments, bool) {
	switch v := a[name].(type) {
	case map[string]any:
		return Arguments(v), true
	case Arguments:
		return v, true
	}
	return nil, false
}

// Array returns the named argument if it is a JSON array.
func (a Arguments) Array(name string) ([]any, bool) {
	v, ok := a[name].([]any)
	return v, ok
}

// Encode renders the arguments as the JSON string a tool call carries.
func (a Arguments) Encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(a)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
