// ABOUTME: Converts executor rows or JSON payloads into search result items.
// ABOUTME: Handles identifier normalisation, title/text fallback chains and metadata assembly.

package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
)

// Placeholders used when a row has no usable value.
const (
	PlaceholderTitle = "Untitled"
	PlaceholderText  = "No description available"
)

// Metadata keys.
const (
	MetaKind           = "kind"
	MetaCode           = "code"
	MetaName           = "name"
	MetaClassification = "classification"
	MetaRow            = "row"
)

// SearchResult is one item of a search or fetch response.
type SearchResult struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	URL      string         `json:"url"`
	Metadata map[string]any `json:"metadata"`
}

// Entity describes how rows of one record kind map onto results.
type Entity struct {
	Kind              string
	IDColumn          string // defaults to Kind + "id"
	NameColumn        string
	CodeColumn        string
	DescriptionColumn string
	ServiceURL        string
	Classification    string
}

func (e Entity) idColumn() string {
	if e.IDColumn != "" {
		return e.IDColumn
	}
	return e.Kind + "id"
}

// Transform converts rows in order. It returns an empty, non-nil slice for no rows.
func (e Entity) Transform(rows []map[string]any) []SearchResult {
	out := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, e.Item(row))
	}
	return out
}

// Item converts a single row.
func (e Entity) Item(row map[string]any) SearchResult {
	name := stringValue(row[e.NameColumn])
	code := stringValue(row[e.CodeColumn])

	return SearchResult{
		ID:    NormalizeID(row[e.idColumn()]),
		Title: firstNonBlank(name, PlaceholderTitle),
		Text:  firstNonBlank(stringValue(row[e.DescriptionColumn]), code, PlaceholderText),
		URL:   e.ServiceURL,
		Metadata: map[string]any{
			MetaKind:           e.Kind,
			MetaCode:           code,
			MetaName:           name,
			MetaClassification: e.Classification,
			MetaRow:            row,
		},
	}
}

// FromPayload converts any supported raw payload. Anything that is not
// tabular produces an empty slice.
func (e Entity) FromPayload(raw any) []SearchResult {
	rows, _ := Rows(raw)
	return e.Transform(rows)
}

// Rows extracts tabular rows from raw. Supported inputs are *executor.ResultSet,
// []map[string]any, []any of objects, and JSON (bytes, string or
// json.RawMessage) holding an array of objects or an object with a "value" or
// "rows" array. The boolean is false when raw is not tabular.
func Rows(raw any) ([]map[string]any, bool) {
	switch v := raw.(type) {
	case *executor.ResultSet:
		if v == nil {
			return nil, false
		}
		return v.Rows, true
	case []map[string]any:
		return v, true
	case []any:
		return objectRows(v)
	case map[string]any:
		for _, key := range []string{"value", "rows"} {
			if inner, ok := v[key].([]any); ok {
				return objectRows(inner)
			}
		}
		return nil, false
	case json.RawMessage:
		return jsonRows(v)
	case []byte:
		return jsonRows(v)
	case string:
		return jsonRows([]byte(v))
	default:
		return nil, false
	}
}

func jsonRows(data []byte) ([]map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, false
	}
	switch decoded.(type) {
	case []any, map[string]any:
		return Rows(decoded)
	default:
		return nil, false
	}
}

func objectRows(items []any) ([]map[string]any, bool) {
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		rows = append(rows, row)
	}
	return rows, true
}

// NormalizeID renders an identifier value as a string without a leading or
// trailing brace. A nested object with an "id" field yields that field instead.
func NormalizeID(v any) string {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["id"]; ok {
			return NormalizeID(inner)
		}
	}

	s := strings.TrimSpace(stringValue(v))
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	return strings.TrimSpace(s)
}

// stringValue renders scalar values as text; nil becomes "".
func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
