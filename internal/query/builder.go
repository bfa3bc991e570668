// ABOUTME: Dialect-aware statement construction with squirrel.
// ABOUTME: Builds search, fetch-by-id and row selection statements plus the confidentiality predicate.

package query

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
)

// MaxRows caps any row-returning statement.
const MaxRows = 5000

// Statement is a parameterised SQL statement.
type Statement struct {
	SQL  string
	Args []any
}

// Target describes the entity table that search and fetch read from.
type Target struct {
	Table              string
	IDColumn           string
	ConfidentialColumn string
	DefaultColumns     []string
}

// RowsRequest describes a generic row retrieval.
type RowsRequest struct {
	Table   string
	Fields  []string
	Filter  string
	OrderBy string
	Top     int
}

// Builder produces statements in the placeholder style of a dialect.
type Builder struct {
	dialect executor.Dialect
	sb      sq.StatementBuilderType
}

// NewBuilder returns a Builder for dialect. Postgres uses $n placeholders,
// everything else uses '?'.
func NewBuilder(dialect executor.Dialect) *Builder {
	return &Builder{
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(placeholderFormat(dialect)),
	}
}

// Dialect returns the dialect the builder targets.
func (b *Builder) Dialect() executor.Dialect {
	return b.dialect
}

// contains matches rows whose column holds term anywhere. Postgres LIKE is
// case-sensitive, so ILIKE is used there.
func (b *Builder) contains(column, term string) sq.Sqlizer {
	pattern := "%" + term + "%"
	if b.dialect == executor.DialectPostgres {
		return sq.ILike{column: pattern}
	}
	return sq.Like{column: pattern}
}

// TextPredicate ORs a contains-match for every field term, or for the
// residual text across defaultColumns in fallback mode. It returns nil when
// there is nothing to match on.
func (b *Builder) TextPredicate(q SearchQuery, defaultColumns []string) sq.Sqlizer {
	var or sq.Or
	if q.Mode == ModeFallback {
		if q.Residual == "" {
			return nil
		}
		for _, col := range defaultColumns {
			or = append(or, b.contains(col, q.Residual))
		}
	} else {
		for _, t := range q.Terms {
			or = append(or, b.contains(t.Column, t.Term))
		}
	}
	if len(or) == 0 {
		return nil
	}
	return or
}

// ConfidentialityPredicate admits rows whose flag is unset or false.
func ConfidentialityPredicate(column string) sq.Sqlizer {
	if column == "" {
		return nil
	}
	return sq.Or{sq.Eq{column: nil}, sq.Eq{column: false}}
}

// Search builds the search statement for t, limited to limit rows.
func (b *Builder) Search(t Target, q SearchQuery, limit int) (Statement, error) {
	if err := validateTarget(t); err != nil {
		return Statement{}, err
	}

	sel := b.sb.Select("*").From(t.Table)
	if text := b.TextPredicate(q, t.DefaultColumns); text != nil {
		sel = sel.Where(text)
	}
	if conf := ConfidentialityPredicate(t.ConfidentialColumn); conf != nil {
		sel = sel.Where(conf)
	}
	sel = sel.Limit(uint64(clampLimit(limit, MaxRows)))

	return toStatement(sel)
}

// FetchByID builds a lookup of one record. The identifier is matched both
// bare and wrapped in braces so either storage form is found.
func (b *Builder) FetchByID(t Target, id string) (Statement, error) {
	if err := validateTarget(t); err != nil {
		return Statement{}, err
	}
	if id == "" {
		return Statement{}, errors.New("id is required")
	}

	sel := b.sb.Select("*").
		From(t.Table).
		Where(sq.Eq{t.IDColumn: []string{id, "{" + id + "}"}})
	if conf := ConfidentialityPredicate(t.ConfidentialColumn); conf != nil {
		sel = sel.Where(conf)
	}
	return toStatement(sel.Limit(1))
}

// Rows builds a generic filtered and sorted selection.
func (b *Builder) Rows(r RowsRequest) (Statement, error) {
	table, err := SanitizeIdentifier(r.Table)
	if err != nil {
		return Statement{}, err
	}

	columns := []string{"*"}
	if len(r.Fields) > 0 {
		columns = columns[:0]
		for _, f := range r.Fields {
			col, err := SanitizeIdentifier(f)
			if err != nil {
				return Statement{}, err
			}
			columns = append(columns, col)
		}
	}

	sel := b.sb.Select(columns...).From(table)

	if err := CheckPredicate(r.Filter); err != nil {
		return Statement{}, err
	}
	if r.Filter != "" {
		sel = sel.Where(sq.Expr(b.literalFilter(r.Filter)))
	}

	order, err := ParseOrderBy(r.OrderBy)
	if err != nil {
		return Statement{}, err
	}
	if len(order) > 0 {
		sel = sel.OrderBy(order...)
	}

	return toStatement(sel.Limit(uint64(clampLimit(r.Top, MaxRows))))
}

// literalFilter keeps a caller-written filter intact through placeholder
// rewriting. The filter carries no arguments, so any '?' in it is literal
// text, and the dollar format treats "??" as an escaped '?'.
func (b *Builder) literalFilter(filter string) string {
	if b.dialect == executor.DialectPostgres {
		return strings.ReplaceAll(filter, "?", "??")
	}
	return filter
}

func validateTarget(t Target) error {
	if _, err := SanitizeIdentifier(t.Table); err != nil {
		return fmt.Errorf("search table: %w", err)
	}
	if _, err := SanitizeIdentifier(t.IDColumn); err != nil {
		return fmt.Errorf("id column: %w", err)
	}
	return nil
}

func clampLimit(n, max int) int {
	if n <= 0 || n > max {
		return max
	}
	return n
}

func placeholderFormat(d executor.Dialect) sq.PlaceholderFormat {
	if d == executor.DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func toStatement(s sq.Sqlizer) (Statement, error) {
	sql, args, err := s.ToSql()
	if err != nil {
		return Statement{}, fmt.Errorf("building statement: %w", err)
	}
	return Statement{SQL: sql, Args: args}, nil
}
