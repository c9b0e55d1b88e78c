// Package query turns list-endpoint query strings into a whitelisted, typed
// filter/sort/projection description that stores translate into SQL or
// evaluate in memory.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxLimit = 100

// Reserved parameters never treated as filters.
const (
	ParamSelect = "select"
	ParamSort   = "sort"
	ParamPage   = "page"
	ParamLimit  = "limit"
)

type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeTime
	TypeUUID
)

type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Field describes one filterable/sortable attribute by its public (JSON) path.
type Field struct {
	Column string // SQL expression
	Type   FieldType
}

type Schema struct {
	Fields map[string]Field
	// Selectable lists projection-only paths that cannot be filtered or sorted.
	Selectable   []string
	DefaultLimit int
	DefaultSort  []SortKey
}

func (s Schema) canSelect(f string) bool {
	if _, ok := s.Fields[f]; ok {
		return true
	}
	return slices.Contains(s.Selectable, f)
}

type Condition struct {
	Field string
	Op    Op
	// Value is string, float64, time.Time or uuid.UUID; for OpIn a slice of those.
	Value any
}

type SortKey struct {
	Field string
	Desc  bool
}

type ListQuery struct {
	Conditions []Condition
	Select     []string
	Sort       []SortKey
	Page       int
	Limit      int
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Error reports a rejected query parameter.
type Error struct {
	Param   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %s", e.Param, e.Message)
}

func IsQueryError(err error) bool {
	var qe *Error
	return errors.As(err, &qe)
}

var paramPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)(?:\[([a-z]+)\])?$`)

// Parse validates values against schema. Unknown fields, operators and
// unparsable values are rejected rather than passed through.
func Parse(values url.Values, schema Schema) (ListQuery, error) {
	q := ListQuery{Page: 1, Limit: schema.DefaultLimit}
	if q.Limit <= 0 {
		q.Limit = 10
	}

	if v := values.Get(ParamPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, &Error{Param: ParamPage, Message: "must be a positive integer"}
		}
		q.Page = n
	}
	if v := values.Get(ParamLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return q, &Error{Param: ParamLimit, Message: fmt.Sprintf("must be between 1 and %d", MaxLimit)}
		}
		q.Limit = n
	}

	if v := values.Get(ParamSelect); v != "" {
		for _, f := range splitList(v) {
			if !schema.canSelect(f) {
				return q, &Error{Param: ParamSelect, Message: "unknown field " + f}
			}
			q.Select = append(q.Select, f)
		}
	}

	if v := values.Get(ParamSort); v != "" {
		for _, f := range splitList(v) {
			key := SortKey{Field: strings.TrimPrefix(f, "-"), Desc: strings.HasPrefix(f, "-")}
			if _, ok := schema.Fields[key.Field]; !ok {
				return q, &Error{Param: ParamSort, Message: "unknown field " + key.Field}
			}
			q.Sort = append(q.Sort, key)
		}
	} else {
		q.Sort = append(q.Sort, schema.DefaultSort...)
	}

	// Deterministic condition order keeps generated SQL stable.
	params := make([]string, 0, len(values))
	for p := range values {
		params = append(params, p)
	}
	sort.Strings(params)

	for _, p := range params {
		switch p {
		case ParamSelect, ParamSort, ParamPage, ParamLimit:
			continue
		}

		m := paramPattern.FindStringSubmatch(p)
		if m == nil {
			return q, &Error{Param: p, Message: "malformed parameter name"}
		}
		name, op := m[1], OpEq
		if m[2] != "" {
			op = Op(m[2])
			if _, ok := sqlOps[op]; !ok && op != OpIn {
				return q, &Error{Param: p, Message: "unsupported operator " + m[2]}
			}
		}

		field, ok := schema.Fields[name]
		if !ok {
			return q, &Error{Param: p, Message: "unknown field"}
		}

		for _, raw := range values[p] {
			cond := Condition{Field: name, Op: op}
			if op == OpIn {
				var items []any
				for _, part := range splitList(raw) {
					v, err := convert(part, field.Type)
					if err != nil {
						return q, &Error{Param: p, Message: err.Error()}
					}
					items = append(items, v)
				}
				if len(items) == 0 {
					return q, &Error{Param: p, Message: "empty list"}
				}
				cond.Value = items
			} else {
				v, err := convert(raw, field.Type)
				if err != nil {
					return q, &Error{Param: p, Message: err.Error()}
				}
				cond.Value = v
			}
			q.Conditions = append(q.Conditions, cond)
		}
	}

	return q, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func convert(raw string, t FieldType) (any, error) {
	switch t {
	case TypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case TypeTime:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts, nil
			}
		}
		return nil, fmt.Errorf("%q is not a date", raw)
	case TypeUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not an id", raw)
		}
		return id, nil
	default:
		return raw, nil
	}
}
