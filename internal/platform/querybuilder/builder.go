// Package querybuilder renders parameterized postgres statements. It
// covers the handful of shapes the repositories need; anything fancier
// belongs in hand-written SQL.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Cond renders one WHERE condition, appending its arguments.
type Cond func(buf *strings.Builder, args *[]any, n *int)

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func Eq(column string, value any) Cond {
	return func(buf *strings.Builder, args *[]any, n *int) {
		buf.WriteString(column)
		buf.WriteString(" = ")
		buf.WriteString(placeholder(*n))
		*args = append(*args, value)
		*n++
	}
}

func Gte(column string, value any) Cond {
	return func(buf *strings.Builder, args *[]any, n *int) {
		buf.WriteString(column)
		buf.WriteString(" >= ")
		buf.WriteString(placeholder(*n))
		*args = append(*args, value)
		*n++
	}
}

func Lte(column string, value any) Cond {
	return func(buf *strings.Builder, args *[]any, n *int) {
		buf.WriteString(column)
		buf.WriteString(" <= ")
		buf.WriteString(placeholder(*n))
		*args = append(*args, value)
		*n++
	}
}

// In renders an IN list; an empty list renders a never-true condition so
// the query stays valid.
func In(column string, values []any) Cond {
	return func(buf *strings.Builder, args *[]any, n *int) {
		if len(values) == 0 {
			buf.WriteString("1=0")
			return
		}
		buf.WriteString(column)
		buf.WriteString(" IN (")
		for i, v := range values {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(placeholder(*n))
			*args = append(*args, v)
			*n++
		}
		buf.WriteString(")")
	}
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Cond
	orderBy   []string
	limit     int
	forUpdate bool
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conds ...Cond) *SelectBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// ForUpdate adds a row lock; use inside a transaction.
func (b *SelectBuilder) ForUpdate() *SelectBuilder {
	b.forUpdate = true
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select needs columns")
	}
	if b.table == "" {
		return "", nil, fmt.Errorf("select needs a table")
	}

	var buf strings.Builder
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)

	args := make([]any, 0, len(b.where))
	n := 1
	writeWhere(&buf, b.where, &args, &n)
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}
	if b.forUpdate {
		buf.WriteString(" FOR UPDATE")
	}

	return buf.String(), args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Row(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix appends raw SQL after the VALUES list, for ON CONFLICT clauses.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("insert needs a table")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert needs columns")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert needs at least one row")
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")

	args := make([]any, 0, len(b.rows)*len(b.columns))
	n := 1
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, want %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		for j, v := range row {
			if j > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(placeholder(n))
			args = append(args, v)
			n++
		}
		buf.WriteString(")")
	}
	if b.suffix != "" {
		buf.WriteString(" ")
		buf.WriteString(b.suffix)
	}

	return buf.String(), args, nil
}

type DeleteBuilder struct {
	table string
	where []Cond
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conds ...Cond) *DeleteBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("delete needs a table")
	}

	var buf strings.Builder
	buf.WriteString("DELETE FROM ")
	buf.WriteString(b.table)

	args := make([]any, 0, len(b.where))
	n := 1
	writeWhere(&buf, b.where, &args, &n)

	return buf.String(), args, nil
}

func writeWhere(buf *strings.Builder, conds []Cond, args *[]any, n *int) {
	if len(conds) == 0 {
		return
	}
	buf.WriteString(" WHERE ")
	for i, c := range conds {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		c(buf, args, n)
	}
}
