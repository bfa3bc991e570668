// ABOUTME: Translates FetchXML documents into parameterised SQL statements.
// ABOUTME: Supports attributes, ordering, nested and/or filters, common condition operators and link-entity joins.

package query

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// ErrInvalidFetchXML is returned for documents that cannot be translated.
var ErrInvalidFetchXML = errors.New("invalid FetchXML")

type fetchDoc struct {
	XMLName  xml.Name     `xml:"fetch"`
	Top      string       `xml:"top,attr"`
	Count    string       `xml:"count,attr"`
	Distinct string       `xml:"distinct,attr"`
	Entity   *fetchEntity `xml:"entity"`
}

type fetchEntity struct {
	Name          string           `xml:"name,attr"`
	Attributes    []fetchAttribute `xml:"attribute"`
	AllAttributes *struct{}        `xml:"all-attributes"`
	Orders        []fetchOrder     `xml:"order"`
	Filters       []fetchFilter    `xml:"filter"`
	Links         []fetchLink      `xml:"link-entity"`
}

type fetchAttribute struct {
	Name  string `xml:"name,attr"`
	Alias string `xml:"alias,attr"`
}

type fetchOrder struct {
	Attribute  string `xml:"attribute,attr"`
	Descending string `xml:"descending,attr"`
}

type fetchFilter struct {
	Type       string           `xml:"type,attr"`
	Conditions []fetchCondition `xml:"condition"`
	Filters    []fetchFilter    `xml:"filter"`
}

type fetchCondition struct {
	Attribute  string   `xml:"attribute,attr"`
	Operator   string   `xml:"operator,attr"`
	Value      *string  `xml:"value,attr"`
	EntityName string   `xml:"entityname,attr"`
	Values     []string `xml:"value"`
}

type fetchLink struct {
	Name       string           `xml:"name,attr"`
	From       string           `xml:"from,attr"`
	To         string           `xml:"to,attr"`
	Alias      string           `xml:"alias,attr"`
	LinkType   string           `xml:"link-type,attr"`
	Attributes []fetchAttribute `xml:"attribute"`
	Orders     []fetchOrder     `xml:"order"`
	Filters    []fetchFilter    `xml:"filter"`
	Links      []fetchLink      `xml:"link-entity"`
}

// fetchTranslation accumulates the pieces of the SELECT while walking the document.
type fetchTranslation struct {
	qualify bool
	columns []string
	orders  []string
	joins   []joinClause
	where   []sq.Sqlizer
}

type joinClause struct {
	outer bool
	sql   string
	args  []any
}

// TranslateFetchXML converts a FetchXML query into a SQL statement for the
// builder's dialect.
func (b *Builder) TranslateFetchXML(doc string) (Statement, error) {
	var fetch fetchDoc
	if err := xml.Unmarshal([]byte(strings.TrimSpace(doc)), &fetch); err != nil {
		return Statement{}, fmt.Errorf("%w: %v", ErrInvalidFetchXML, err)
	}
	if fetch.Entity == nil {
		return Statement{}, fmt.Errorf("%w: missing entity element", ErrInvalidFetchXML)
	}

	entity := fetch.Entity
	table, err := SanitizeIdentifier(entity.Name)
	if err != nil {
		return Statement{}, fmt.Errorf("%w: entity name: %v", ErrInvalidFetchXML, err)
	}

	tr := &fetchTranslation{qualify: len(entity.Links) > 0}

	if err := tr.addAttributes(table, entity.Attributes, entity.AllAttributes != nil, false); err != nil {
		return Statement{}, err
	}
	if err := tr.addOrders(table, entity.Orders); err != nil {
		return Statement{}, err
	}
	for _, f := range entity.Filters {
		pred, err := tr.filter(table, f)
		if err != nil {
			return Statement{}, err
		}
		if pred != nil {
			tr.where = append(tr.where, pred)
		}
	}
	for _, link := range entity.Links {
		if err := tr.addLink(table, link); err != nil {
			return Statement{}, err
		}
	}

	columns := tr.columns
	if len(columns) == 0 {
		columns = []string{"*"}
		if tr.qualify {
			columns = []string{table + ".*"}
		}
	}

	sel := b.sb.Select(columns...).From(table)
	if isTrue(fetch.Distinct) {
		sel = sel.Distinct()
	}
	for _, j := range tr.joins {
		if j.outer {
			sel = sel.LeftJoin(j.sql, j.args...)
		} else {
			sel = sel.Join(j.sql, j.args...)
		}
	}
	for _, w := range tr.where {
		sel = sel.Where(w)
	}
	if len(tr.orders) > 0 {
		sel = sel.OrderBy(tr.orders...)
	}

	limit := fetch.Top
	if limit == "" {
		limit = fetch.Count
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return Statement{}, fmt.Errorf("%w: top/count %q is not a positive number", ErrInvalidFetchXML, limit)
		}
		sel = sel.Limit(uint64(n))
	}

	return toStatement(sel)
}

func (tr *fetchTranslation) column(alias, name string) (string, error) {
	col, err := SanitizeIdentifier(name)
	if err != nil {
		return "", fmt.Errorf("%w: attribute: %v", ErrInvalidFetchXML, err)
	}
	if tr.qualify {
		return alias + "." + col, nil
	}
	return col, nil
}

func (tr *fetchTranslation) addAttributes(alias string, attrs []fetchAttribute, all, linked bool) error {
	if all {
		tr.columns = append(tr.columns, alias+".*")
		return nil
	}
	for _, a := range attrs {
		col, err := tr.column(alias, a.Name)
		if err != nil {
			return err
		}
		as := a.Alias
		if as == "" && linked {
			as = alias + "_" + a.Name
		}
		if as != "" {
			as, err = SanitizeIdentifier(as)
			if err != nil || strings.Contains(as, ".") {
				return fmt.Errorf("%w: attribute alias %q", ErrInvalidFetchXML, a.Alias)
			}
			col += " AS " + as
		}
		tr.columns = append(tr.columns, col)
	}
	return nil
}

func (tr *fetchTranslation) addOrders(alias string, orders []fetchOrder) error {
	for _, o := range orders {
		col, err := tr.column(alias, o.Attribute)
		if err != nil {
			return err
		}
		if isTrue(o.Descending) {
			col += " DESC"
		} else {
			col += " ASC"
		}
		tr.orders = append(tr.orders, col)
	}
	return nil
}

func (tr *fetchTranslation) addLink(parent string, link fetchLink) error {
	name, err := SanitizeIdentifier(link.Name)
	if err != nil {
		return fmt.Errorf("%w: link-entity name: %v", ErrInvalidFetchXML, err)
	}
	alias := name
	if link.Alias != "" {
		if alias, err = SanitizeIdentifier(link.Alias); err != nil {
			return fmt.Errorf("%w: link-entity alias: %v", ErrInvalidFetchXML, err)
		}
	}
	from, err := SanitizeIdentifier(link.From)
	if err != nil {
		return fmt.Errorf("%w: link-entity from: %v", ErrInvalidFetchXML, err)
	}
	to, err := SanitizeIdentifier(link.To)
	if err != nil {
		return fmt.Errorf("%w: link-entity to: %v", ErrInvalidFetchXML, err)
	}

	var outer bool
	switch strings.ToLower(link.LinkType) {
	case "", "inner":
	case "outer":
		outer = true
	default:
		return fmt.Errorf("%w: unsupported link-type %q", ErrInvalidFetchXML, link.LinkType)
	}

	on := fmt.Sprintf("%s AS %s ON %s.%s = %s.%s", name, alias, alias, from, parent, to)
	var args []any
	for _, f := range link.Filters {
		pred, err := tr.filter(alias, f)
		if err != nil {
			return err
		}
		if pred == nil {
			continue
		}
		sql, predArgs, err := pred.ToSql()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFetchXML, err)
		}
		on += " AND " + sql
		args = append(args, predArgs...)
	}
	tr.joins = append(tr.joins, joinClause{outer: outer, sql: on, args: args})

	if err := tr.addAttributes(alias, link.Attributes, false, true); err != nil {
		return err
	}
	if err := tr.addOrders(alias, link.Orders); err != nil {
		return err
	}
	for _, nested := range link.Links {
		if err := tr.addLink(alias, nested); err != nil {
			return err
		}
	}
	return nil
}

// filter converts a filter element into a predicate, or nil when it is empty.
func (tr *fetchTranslation) filter(alias string, f fetchFilter) (sq.Sqlizer, error) {
	var parts []sq.Sqlizer
	for _, c := range f.Conditions {
		pred, err := tr.condition(alias, c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, pred)
	}
	for _, nested := range f.Filters {
		pred, err := tr.filter(alias, nested)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			parts = append(parts, pred)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	switch strings.ToLower(f.Type) {
	case "", "and":
		return sq.And(parts), nil
	case "or":
		return sq.Or(parts), nil
	default:
		return nil, fmt.Errorf("%w: unsupported filter type %q", ErrInvalidFetchXML, f.Type)
	}
}

func (tr *fetchTranslation) condition(alias string, c fetchCondition) (sq.Sqlizer, error) {
	col, err := tr.column(alias, c.Attribute)
	if err != nil {
		return nil, err
	}
	if c.EntityName != "" {
		entity, err := SanitizeIdentifier(c.EntityName)
		if err != nil {
			return nil, fmt.Errorf("%w: condition entityname: %v", ErrInvalidFetchXML, err)
		}
		attr, _ := SanitizeIdentifier(c.Attribute)
		col = entity + "." + attr
	}

	values := c.Values
	if c.Value != nil {
		values = append([]string{*c.Value}, values...)
	}
	single := func() (string, error) {
		if len(values) != 1 {
			return "", fmt.Errorf("%w: operator %q on %s needs exactly one value", ErrInvalidFetchXML, c.Operator, c.Attribute)
		}
		return values[0], nil
	}

	op := strings.ToLower(c.Operator)
	switch op {
	case "null":
		return sq.Eq{col: nil}, nil
	case "not-null":
		return sq.NotEq{col: nil}, nil
	case "in", "not-in":
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: operator %q on %s needs values", ErrInvalidFetchXML, op, c.Attribute)
		}
		if op == "in" {
			return sq.Eq{col: values}, nil
		}
		return sq.NotEq{col: values}, nil
	case "between", "not-between":
		if len(values) != 2 {
			return nil, fmt.Errorf("%w: operator %q on %s needs two values", ErrInvalidFetchXML, op, c.Attribute)
		}
		kw := "BETWEEN"
		if op == "not-between" {
			kw = "NOT BETWEEN"
		}
		return sq.Expr(col+" "+kw+" ? AND ?", values[0], values[1]), nil
	}

	v, err := single()
	if err != nil {
		return nil, err
	}
	switch op {
	case "eq":
		return sq.Eq{col: v}, nil
	case "ne", "neq":
		return sq.NotEq{col: v}, nil
	case "gt":
		return sq.Gt{col: v}, nil
	case "ge":
		return sq.GtOrEq{col: v}, nil
	case "lt":
		return sq.Lt{col: v}, nil
	case "le":
		return sq.LtOrEq{col: v}, nil
	case "like":
		return sq.Like{col: v}, nil
	case "not-like":
		return sq.NotLike{col: v}, nil
	case "begins-with":
		return sq.Like{col: v + "%"}, nil
	case "not-begin-with":
		return sq.NotLike{col: v + "%"}, nil
	case "ends-with":
		return sq.Like{col: "%" + v}, nil
	case "not-end-with":
		return sq.NotLike{col: "%" + v}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidFetchXML, c.Operator)
	}
}

func isTrue(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
