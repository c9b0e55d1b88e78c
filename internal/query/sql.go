package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Where accumulates SQL predicates with positional arguments.
type Where struct {
	clauses []string
	args    []any
}

// Add appends a predicate. Use "?" for the single argument placeholder.
func (w *Where) Add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.Replace(clause, "?", fmt.Sprintf("$%d", len(w.args)), 1))
}

// Arg registers an argument and returns its placeholder.
func (w *Where) Arg(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *Where) Args() []any {
	return w.args
}

func (w *Where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Apply translates the parsed conditions into predicates on w.
func (q ListQuery) Apply(w *Where, schema Schema) {
	for _, c := range q.Conditions {
		col := schema.Fields[c.Field].Column
		if c.Op == OpIn {
			w.Add(col+" = ANY(?)", typedSlice(c.Value.([]any), schema.Fields[c.Field].Type))
			continue
		}
		w.Add(col+" "+sqlOps[c.Op]+" ?", c.Value)
	}
}

// OrderBy renders the ORDER BY clause. id breaks ties so paging is stable.
func (q ListQuery) OrderBy(schema Schema) string {
	parts := make([]string, 0, len(q.Sort)+1)
	for _, s := range q.Sort {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, schema.Fields[s.Field].Column+" "+dir)
	}
	parts = append(parts, "id ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

// PageClause renders LIMIT/OFFSET with placeholders on w.
func (q ListQuery) PageClause(w *Where) string {
	return fmt.Sprintf(" LIMIT %s OFFSET %s", w.Arg(q.Limit), w.Arg(q.Offset()))
}

// pgx needs a concrete element type to encode ANY() arrays.
func typedSlice(items []any, t FieldType) any {
	switch t {
	case TypeNumber:
		out := make([]float64, 0, len(items))
		for _, v := range items {
			out = append(out, v.(float64))
		}
		return out
	case TypeTime:
		out := make([]time.Time, 0, len(items))
		for _, v := range items {
			out = append(out, v.(time.Time))
		}
		return out
	case TypeUUID:
		out := make([]uuid.UUID, 0, len(items))
		for _, v := range items {
			out = append(out, v.(uuid.UUID))
		}
		return out
	default:
		out := make([]string, 0, len(items))
		for _, v := range items {
			out = append(out, v.(string))
		}
		return out
	}
}
