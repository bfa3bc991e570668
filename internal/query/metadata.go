// ABOUTME: Catalogue statements for table and column metadata in each supported dialect.
// ABOUTME: Every dialect returns the same column aliases so tools can treat rows uniformly.

package query

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
)

// Column aliases shared by all metadata statements.
const (
	MetaTableName   = "table_name"
	MetaTableType   = "table_type"
	MetaColumnName  = "column_name"
	MetaDataType    = "data_type"
	MetaIsNullable  = "is_nullable"
	MetaDefault     = "column_default"
	MetaPrimaryKey  = "primary_key"
	MetaTableSchema = "table_schema"
	MetaOrdinal     = "ordinal_position"
	MetaDefinition  = "definition"
)

const postgresPrimaryKeyExpr = `CASE WHEN EXISTS (
	SELECT 1 FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
	WHERE tc.constraint_type = 'PRIMARY KEY'
		AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name
) THEN 1 ELSE 0 END AS primary_key`

// Tables lists user tables and views.
func (b *Builder) Tables() (Statement, error) {
	switch b.dialect {
	case executor.DialectPostgres:
		return toStatement(b.sb.
			Select("table_schema", "table_name", "table_type").
			From("information_schema.tables").
			Where(sq.NotEq{"table_schema": []string{"pg_catalog", "information_schema"}}).
			OrderBy("table_schema", "table_name"))
	case executor.DialectMySQL:
		// MySQL 8 reports information_schema columns in upper case unless aliased
		return toStatement(b.sb.
			Select("table_schema AS table_schema", "table_name AS table_name", "table_type AS table_type").
			From("information_schema.tables").
			Where("table_schema = DATABASE()").
			OrderBy("table_name"))
	default:
		return toStatement(b.sb.
			Select("name AS table_name", "type AS table_type").
			From("sqlite_master").
			Where(sq.Eq{"type": []string{"table", "view"}}).
			Where(sq.NotLike{"name": "sqlite_%"}).
			OrderBy("name"))
	}
}

// Table describes a single table or view by name.
func (b *Builder) Table(name string) (Statement, error) {
	name, err := SanitizeIdentifier(name)
	if err != nil {
		return Statement{}, err
	}

	switch b.dialect {
	case executor.DialectPostgres:
		return toStatement(b.sb.
			Select("table_schema", "table_name", "table_type").
			From("information_schema.tables").
			Where(sq.Eq{"table_name": name}).
			Where(sq.NotEq{"table_schema": []string{"pg_catalog", "information_schema"}}))
	case executor.DialectMySQL:
		return toStatement(b.sb.
			Select("table_schema AS table_schema", "table_name AS table_name", "table_type AS table_type", "table_comment AS definition").
			From("information_schema.tables").
			Where("table_schema = DATABASE()").
			Where(sq.Eq{"table_name": name}))
	default:
		return toStatement(b.sb.
			Select("name AS table_name", "type AS table_type", "sql AS definition").
			From("sqlite_master").
			Where(sq.Eq{"type": []string{"table", "view"}}).
			Where(sq.Eq{"name": name}))
	}
}

// Columns lists the columns of a table in declaration order.
func (b *Builder) Columns(table string) (Statement, error) {
	table, err := SanitizeIdentifier(table)
	if err != nil {
		return Statement{}, err
	}

	switch b.dialect {
	case executor.DialectPostgres:
		return toStatement(b.sb.
			Select("c.column_name", "c.data_type", "c.is_nullable", "c.column_default", "c.ordinal_position", postgresPrimaryKeyExpr).
			From("information_schema.columns c").
			Where(sq.Eq{"c.table_name": table}).
			Where(sq.NotEq{"c.table_schema": []string{"pg_catalog", "information_schema"}}).
			OrderBy("c.ordinal_position"))
	case executor.DialectMySQL:
		return toStatement(b.sb.
			Select("column_name AS column_name", "data_type AS data_type", "is_nullable AS is_nullable",
				"column_default AS column_default", "ordinal_position AS ordinal_position",
				"CASE WHEN column_key = 'PRI' THEN 1 ELSE 0 END AS primary_key").
			From("information_schema.columns").
			Where("table_schema = DATABASE()").
			Where(sq.Eq{"table_name": table}).
			OrderBy("ordinal_position"))
	default:
		// table is a sanitized identifier, so it is safe inside the literal
		return toStatement(b.sb.
			Select("name AS column_name", "type AS data_type",
				`CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END AS is_nullable`,
				"dflt_value AS column_default", "cid + 1 AS ordinal_position",
				"CASE WHEN pk > 0 THEN 1 ELSE 0 END AS primary_key").
			From("pragma_table_info('" + table + "')").
			OrderBy("cid"))
	}
}
