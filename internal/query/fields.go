// ABOUTME: Field mapping from user-facing search prefixes to store columns.
// ABOUTME: Lookup is case-insensitive; configured aliases extend the built-in synonyms.

package query

import (
	"sort"
	"strings"
)

// Synonyms for each logical search field.
var (
	nameSynonyms        = []string{"title", "name", "subject"}
	codeSynonyms        = []string{"code", "number", "ref", "reference"}
	descriptionSynonyms = []string{"description", "desc", "summary", "details"}
)

// FieldMapping resolves a search prefix such as "title" to a column name.
type FieldMapping struct {
	columns map[string]string
}

// NewFieldMapping builds the mapping for an entity's name, code and
// description columns. Empty columns are skipped. Aliases map extra prefixes
// to arbitrary columns and override the built-in synonyms.
func NewFieldMapping(nameColumn, codeColumn, descriptionColumn string, aliases map[string]string) *FieldMapping {
	m := &FieldMapping{columns: make(map[string]string)}
	m.add(nameSynonyms, nameColumn)
	m.add(codeSynonyms, codeColumn)
	m.add(descriptionSynonyms, descriptionColumn)
	for prefix, column := range aliases {
		m.add([]string{prefix}, column)
	}
	return m
}

func (m *FieldMapping) add(prefixes []string, column string) {
	column = strings.TrimSpace(column)
	if column == "" {
		return
	}
	for _, p := range prefixes {
		m.columns[strings.ToLower(strings.TrimSpace(p))] = column
	}
}

// Column returns the column mapped to prefix.
func (m *FieldMapping) Column(prefix string) (string, bool) {
	if m == nil {
		return "", false
	}
	col, ok := m.columns[strings.ToLower(prefix)]
	return col, ok
}

// Prefixes returns every known prefix in sorted order.
func (m *FieldMapping) Prefixes() []string {
	out := make([]string, 0, len(m.columns))
	for p := range m.columns {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
