// ABOUTME: Tool names and JSON Schema input descriptors advertised by tools/list.
// ABOUTME: Schemas are built with google/jsonschema-go so they serialise consistently.

package tools

import (
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool names.
const (
	ToolSearch                      = "search"
	ToolFetch                       = "fetch"
	ToolExecuteSQL                  = "ExecuteSQL"
	ToolGetMetadataForAllTables     = "GetMetadataForAllTables"
	ToolGetMetadataByTableName      = "GetMetadataByTableName"
	ToolGetFieldMetadataByTableName = "GetFieldMetadataByTableName"
	ToolGetRowsForTable             = "GetRowsForTable"
	ToolConvertFetchXMLToSQL        = "ConvertFetchXmlToSql"
)

func objectSchema(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	if props == nil {
		props = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func stringProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func integerProp(description string, min, max float64) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Description: description,
		Minimum:     &min,
		Maximum:     &max,
	}
}

func stringArrayProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       &jsonschema.Schema{Type: "string"},
	}
}

// searchDescription lists the field prefixes the search parser understands.
func searchDescription(prefixes []string) string {
	var b strings.Builder
	b.WriteString("Search records by free text.")
	if len(prefixes) > 0 {
		b.WriteString(" Supports field prefixes (")
		for i, p := range prefixes {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p + ":")
		}
		b.WriteString(`) and "<field> contains <term>" phrases.`)
	}
	b.WriteString(" Highly confidential records are never returned.")
	return b.String()
}

func searchSchema(maxResults int) *jsonschema.Schema {
	return objectSchema([]string{"query"}, map[string]*jsonschema.Schema{
		"query": stringProp(`Free-text query. Use field prefixes such as code:LEG-100 or name:"Acme merger" to target a column, or "name contains acme".`),
		"limit": integerProp("Maximum number of results", 1, float64(maxResults)),
	})
}

func fetchSchema() *jsonschema.Schema {
	return objectSchema([]string{"id"}, map[string]*jsonschema.Schema{
		"id": stringProp("Record identifier as returned by search, with or without braces"),
	})
}

func executeSQLSchema() *jsonschema.Schema {
	return objectSchema([]string{"query"}, map[string]*jsonschema.Schema{
		"query": stringProp("A single read-only SELECT or WITH statement"),
	})
}

func tableNameSchema() *jsonschema.Schema {
	return objectSchema([]string{"tableName"}, map[string]*jsonschema.Schema{
		"tableName": stringProp("Table or view name"),
	})
}

func fieldMetadataSchema() *jsonschema.Schema {
	return objectSchema([]string{"tableName"}, map[string]*jsonschema.Schema{
		"tableName": stringProp("Table or view name"),
		"fields":    stringArrayProp("Column names to describe; all columns when omitted"),
	})
}

func rowsSchema() *jsonschema.Schema {
	return objectSchema([]string{"tableName"}, map[string]*jsonschema.Schema{
		"tableName": stringProp("Table or view name"),
		"fields":    stringArrayProp("Columns to return; all columns when omitted"),
		"filter":    stringProp("SQL predicate for the WHERE clause, e.g. statecode = 0"),
		"orderBy":   stringProp("Comma-separated sort, e.g. createdon DESC, name"),
		"top":       integerProp("Maximum number of rows", 1, 5000),
	})
}

func fetchXMLSchema() *jsonschema.Schema {
	return objectSchema([]string{"fetchXml"}, map[string]*jsonschema.Schema{
		"fetchXml": stringProp("FetchXML document to translate"),
	})
}
