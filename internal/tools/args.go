// ABOUTME: Loose-typed tool argument bag with per-shape coercion.
// ABOUTME: Strings, string arrays and integers are accepted as native values or raw JSON nodes.

package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/satriotsubasa/dataverse-mcp/internal/mcp"
)

// Arguments holds decoded tool arguments. Values are native Go values,
// json.Number for numbers, or json.RawMessage for nodes left undecoded.
type Arguments map[string]any

// DecodeArguments decodes raw tool arguments. Null or absent arguments give
// an empty bag; anything but a JSON object is an invalid params error.
func DecodeArguments(raw json.RawMessage) (Arguments, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Arguments{}, nil
	}
	if trimmed[0] != '{' {
		return nil, mcp.NewError(mcp.JSONRPCInvalidParams, "Invalid params: arguments must be an object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var args Arguments
	if err := dec.Decode(&args); err != nil {
		return nil, mcp.NewError(mcp.JSONRPCInvalidParams, "Invalid params: "+err.Error())
	}
	if args == nil {
		args = Arguments{}
	}
	return args, nil
}

// String returns the argument as a string. JSON string nodes are unquoted;
// any other present value is converted to its generic string form.
func (a Arguments) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	return stringOf(v)
}

// RequiredString returns a non-blank string argument or an invalid params error.
func (a Arguments) RequiredString(key string) (string, error) {
	s, ok := a.String(key)
	if !ok || strings.TrimSpace(s) == "" {
		return "", mcp.Errorf(mcp.JSONRPCInvalidParams, "Invalid params: %s is required", key)
	}
	return s, nil
}

// StringSlice returns the argument as a list of strings. Anything that is
// not an array yields an empty list.
func (a Arguments) StringSlice(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := stringOf(item); ok {
				out = append(out, s)
			}
		}
		return out
	case json.RawMessage:
		items, ok := decodeNode(v).([]any)
		if !ok {
			return nil
		}
		return Arguments{key: items}.StringSlice(key)
	default:
		return nil
	}
}

// Int returns the argument as an integer. Native integers, integral JSON
// numbers and strings that parse as integers are accepted; anything else is
// reported as absent.
func (a Arguments) Int(key string) (int, bool) {
	return intOf(a[key])
}

func intOf(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return intOf(f)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	case json.RawMessage:
		return intOf(decodeNode(n))
	}
	return 0, false
}

func stringOf(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case json.RawMessage:
		node := decodeNode(s)
		if node == nil {
			return "", false
		}
		return stringOf(node)
	case map[string]any, []any:
		data, err := json.Marshal(s)
		if err != nil {
			return "", false
		}
		return string(data), true
	default:
		return fmt.Sprint(s), true
	}
}

// decodeNode decodes a raw JSON node, keeping numbers as json.Number.
func decodeNode(raw json.RawMessage) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}
