package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/runbeam/runbeam/internal/domain"
	"github.com/runbeam/runbeam/internal/port/analytics"
)

// builder accumulates predicate fragments and their named arguments. Values
// travel exclusively through driver parameter binding; the only text
// manipulation is replacing an array placeholder with per-element
// placeholders, never with values.
type builder struct {
	conds []string
	args  []any
	order string
	limit int
}

func newBuilder() *builder {
	return &builder{}
}

func (b *builder) where(fragment string, params []analytics.Param) {
	for _, p := range params {
		if p.Type == analytics.TypeArrayString {
			fragment = b.bindArray(fragment, p)
			continue
		}
		b.args = append(b.args, sql.Named(p.Name, p.Value))
	}
	b.conds = append(b.conds, "("+fragment+")")
}

// bindArray expands $name into $name_0, $name_1, ... and binds one named
// argument per element. An empty list binds a single NULL, which matches
// nothing under IN or list semantics.
func (b *builder) bindArray(fragment string, p analytics.Param) string {
	values, _ := p.Value.([]string)
	if len(values) == 0 {
		name := p.Name + "_0"
		b.args = append(b.args, sql.Named(name, nil))
		return strings.ReplaceAll(fragment, "$"+p.Name, "$"+name)
	}

	placeholders := make([]string, len(values))
	for i, v := range values {
		name := fmt.Sprintf("%s_%d", p.Name, i)
		placeholders[i] = "$" + name
		b.args = append(b.args, sql.Named(name, v))
	}
	return strings.ReplaceAll(fragment, "$"+p.Name, strings.Join(placeholders, ", "))
}

func (b *builder) whereClause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// listSQL renders the identifier-selection shape.
func (b *builder) listSQL() string {
	sb := &strings.Builder{}
	sb.WriteString("SELECT run_id, created_at FROM " + replicaTable)
	sb.WriteString(b.whereClause())
	if b.order != "" {
		sb.WriteString(" ORDER BY " + b.order)
	}
	if b.limit > 0 {
		fmt.Fprintf(sb, " LIMIT %d", b.limit)
	}
	return sb.String()
}

// countSQL renders the aggregate shape. No ordering, no limit.
func (b *builder) countSQL() string {
	return "SELECT count(*) FROM " + replicaTable + b.whereClause()
}

// runQuery implements analytics.RunQuery.
type runQuery struct {
	db      *sql.DB
	builder *builder
}

func (q *runQuery) Where(fragment string, params ...analytics.Param) analytics.RunQuery {
	q.builder.where(fragment, params)
	return q
}

func (q *runQuery) OrderBy(expr string) analytics.RunQuery {
	q.builder.order = expr
	return q
}

func (q *runQuery) Limit(n int) analytics.RunQuery {
	q.builder.limit = n
	return q
}

func (q *runQuery) Execute(ctx context.Context) ([]analytics.RunEntry, error) {
	rows, err := q.db.QueryContext(ctx, q.builder.listSQL(), q.builder.args...)
	if err != nil {
		return nil, fmt.Errorf("analytics list query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []analytics.RunEntry
	for rows.Next() {
		var id string
		var createdMS int64
		if err := rows.Scan(&id, &createdMS); err != nil {
			return nil, fmt.Errorf("scan run entry: %w", err)
		}
		entries = append(entries, analytics.RunEntry{
			RunID:     id,
			CreatedAt: time.UnixMilli(createdMS),
		})
	}
	return entries, rows.Err()
}

// countQuery implements analytics.CountQuery.
type countQuery struct {
	db      *sql.DB
	builder *builder
}

func (q *countQuery) Where(fragment string, params ...analytics.Param) analytics.CountQuery {
	q.builder.where(fragment, params)
	return q
}

func (q *countQuery) Execute(ctx context.Context) (int64, error) {
	rows, err := q.db.QueryContext(ctx, q.builder.countSQL(), q.builder.args...)
	if err != nil {
		return 0, fmt.Errorf("analytics count query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		// The aggregate must always yield exactly one row.
		return 0, fmt.Errorf("count query returned no row: %w", domain.ErrInternal)
	}
	var count int64
	if err := rows.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, rows.Err()
}
