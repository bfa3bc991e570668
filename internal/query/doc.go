// Package query turns caller input into SQL for the backing store.
//
// # Free-text search
//
// ParseSearch recognises three forms, in priority order:
//
//	title:Aqua code:"LEG 100"   field-prefixed terms (bare, "double" or 'single' quoted)
//	name contains Aqua          natural-language subject/term pairs
//	Project Aqua                anything else, searched across the default columns
//
// Prefixes are matched case-insensitively against a FieldMapping; an unknown
// prefix is treated as ordinary text. Several field terms are combined with OR.
//
// # Statements
//
// Builder produces parameterised statements with squirrel in the placeholder
// style of the target dialect. Search statements always carry the
// confidentiality predicate, which excludes a row only when its flag is true.
//
// # Guards
//
// CheckReadOnly and CheckPredicate reject anything other than a single read
// statement; SanitizeIdentifier and ParseOrderBy validate caller-supplied
// identifiers before they are placed into SQL text.
package query
