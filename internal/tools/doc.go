// Package tools implements the MCP tools served by dataverse-mcp.
//
// # Dispatch
//
// Dispatcher implements mcp.ToolProvider. A call is resolved by exact name,
// then:
//
//  1. If no query executor is configured the call fails with -32603
//     "Service unavailable: query executor is not configured".
//  2. Cacheable tools (the three metadata tools) are served from the cache
//     when an entry for the tool and argument fingerprint exists.
//  3. The handler validates its own arguments (-32602 on failure), builds
//     a statement and runs it. Executor failures become -32603 with a
//     tool-specific prefix such as "Search failed: ".
//  4. Successful cacheable results are stored; every call is recorded when
//     an audit recorder is configured.
//
// # Arguments
//
// Arguments arrive as schema-less JSON. Arguments.String, StringSlice and
// Int coerce each expected shape: a number where a string is expected is
// converted, a malformed array becomes an empty list, and an integer may be
// sent as a JSON number or a numeric string.
//
// # Tools
//
//	search                       {query, limit?}
//	fetch                        {id}
//	ExecuteSQL                   {query}
//	GetMetadataForAllTables      {}
//	GetMetadataByTableName       {tableName}
//	GetFieldMetadataByTableName  {tableName, fields?}
//	GetRowsForTable              {tableName, fields?, filter?, orderBy?, top?}
//	ConvertFetchXmlToSql         {fetchXml}
package tools
