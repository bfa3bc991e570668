// Package transform shapes raw tabular rows into uniform search results.
//
// Every result carries a normalised identifier (enclosing braces stripped), a
// title and text that fall back to placeholders rather than ever being empty,
// the fixed service URL, and metadata holding the record kind, code, name,
// classification label and the complete original row.
//
// Input that is not tabular yields an empty slice; this package never fails.
package transform
