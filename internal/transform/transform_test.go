// ABOUTME: Tests for the result transformer.
// ABOUTME: Covers id normalisation, fallback chains, metadata, ordering and non-tabular payloads.

package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
)

func testEntity() Entity {
	return Entity{
		Kind:              "matter",
		NameColumn:        "name",
		CodeColumn:        "code",
		DescriptionColumn: "description",
		ServiceURL:        "dataverse://matters",
		Classification:    "Standard",
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "braced guid", in: "{123e4567-e89b-12d3-a456-426614174000}", want: "123e4567-e89b-12d3-a456-426614174000"},
		{name: "bare guid", in: "123e4567-e89b-12d3-a456-426614174000", want: "123e4567-e89b-12d3-a456-426614174000"},
		{name: "leading brace only", in: "{abc", want: "abc"},
		{name: "surrounding space", in: "  {abc}  ", want: "abc"},
		{name: "nested id object", in: map[string]any{"id": "{abc}", "logicalName": "matter"}, want: "abc"},
		{name: "object without id", in: map[string]any{"name": "x"}, want: "map[name:x]"},
		{name: "number", in: int64(42), want: "42"},
		{name: "json number", in: json.Number("7"), want: "7"},
		{name: "bytes", in: []byte("{b}"), want: "b"},
		{name: "nil", in: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeID(tt.in))
		})
	}
}

func TestEntity_Item(t *testing.T) {
	row := map[string]any{
		"matterid":    "{A1}",
		"name":        "Aqua",
		"code":        "LEG-100",
		"description": "Water rights dispute",
	}

	item := testEntity().Item(row)

	assert.Equal(t, "A1", item.ID)
	assert.Equal(t, "Aqua", item.Title)
	assert.Equal(t, "Water rights dispute", item.Text)
	assert.Equal(t, "dataverse://matters", item.URL)
	assert.Equal(t, "matter", item.Metadata[MetaKind])
	assert.Equal(t, "LEG-100", item.Metadata[MetaCode])
	assert.Equal(t, "Aqua", item.Metadata[MetaName])
	assert.Equal(t, "Standard", item.Metadata[MetaClassification])
	assert.Equal(t, row, item.Metadata[MetaRow])
}

func TestEntity_Item_Fallbacks(t *testing.T) {
	tests := []struct {
		name      string
		row       map[string]any
		wantTitle string
		wantText  string
	}{
		{
			name:      "text falls back to code",
			row:       map[string]any{"name": "Aqua", "code": "LEG-100", "description": nil},
			wantTitle: "Aqua",
			wantText:  "LEG-100",
		},
		{
			name:      "blank values count as missing",
			row:       map[string]any{"name": "  ", "description": ""},
			wantTitle: PlaceholderTitle,
			wantText:  PlaceholderText,
		},
		{
			name:      "empty row",
			row:       map[string]any{},
			wantTitle: PlaceholderTitle,
			wantText:  PlaceholderText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := testEntity().Item(tt.row)
			assert.Equal(t, tt.wantTitle, item.Title)
			assert.Equal(t, tt.wantText, item.Text)
			assert.Equal(t, "", item.ID)
		})
	}
}

func TestEntity_IDColumn(t *testing.T) {
	e := testEntity()
	assert.Equal(t, "X", e.Item(map[string]any{"matterid": "{X}"}).ID, "id column defaults to kind + id")

	e.IDColumn = "legacy_id"
	assert.Equal(t, "Y", e.Item(map[string]any{"legacy_id": "Y", "matterid": "X"}).ID)
}

func TestEntity_Transform_PreservesOrder(t *testing.T) {
	rows := []map[string]any{
		{"matterid": "3", "name": "Cedar"},
		{"matterid": "1", "name": "Aqua"},
		{"matterid": "2", "name": "Birch"},
	}

	items := testEntity().Transform(rows)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"3", "1", "2"}, []string{items[0].ID, items[1].ID, items[2].ID})

	empty := testEntity().Transform(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestEntity_FromPayload(t *testing.T) {
	e := testEntity()

	tests := []struct {
		name    string
		payload any
		wantIDs []string
	}{
		{
			name:    "result set",
			payload: &executor.ResultSet{Columns: []string{"matterid"}, Rows: []map[string]any{{"matterid": "{a}"}}},
			wantIDs: []string{"a"},
		},
		{
			name:    "row maps",
			payload: []map[string]any{{"matterid": "a"}, {"matterid": "b"}},
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "json array",
			payload: `[{"matterid": "{a}"}, {"matterid": "b"}]`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "json value envelope",
			payload: []byte(`{"value": [{"matterid": {"id": "{c}"}}]}`),
			wantIDs: []string{"c"},
		},
		{
			name:    "json rows envelope",
			payload: json.RawMessage(`{"rows": [{"matterid": 12}]}`),
			wantIDs: []string{"12"},
		},
		{name: "error text", payload: "Error: connection refused"},
		{name: "json scalar", payload: `"just a string"`},
		{name: "json object without rows", payload: `{"error": "boom"}`},
		{name: "array of scalars", payload: []any{"a", "b"}},
		{name: "nil result set", payload: (*executor.ResultSet)(nil)},
		{name: "nil", payload: nil},
		{name: "unsupported type", payload: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := e.FromPayload(tt.payload)
			require.NotNil(t, items)
			ids := make([]string, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.ID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.wantIDs, ids)
			}
		})
	}
}

func TestRows_ReportsNonTabular(t *testing.T) {
	_, ok := Rows("not json")
	assert.False(t, ok)

	rows, ok := Rows(`[]`)
	assert.True(t, ok)
	assert.Empty(t, rows)
}
