package query

import (
	"cmp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Getter extracts the value of a schema field from an item for in-memory evaluation.
// Returning nil means the field is unset, which never matches.
type Getter[T any] func(item T, field string) any

// Match reports whether item satisfies every condition.
func Match[T any](q ListQuery, item T, get Getter[T]) bool {
	for _, c := range q.Conditions {
		actual := get(item, c.Field)
		if actual == nil {
			return false
		}
		if !matchOne(c, actual) {
			return false
		}
	}
	return true
}

func matchOne(c Condition, actual any) bool {
	if c.Op == OpIn {
		for _, v := range c.Value.([]any) {
			if Compare(actual, v) == 0 {
				return true
			}
		}
		return false
	}
	r := Compare(actual, c.Value)
	switch c.Op {
	case OpGt:
		return r > 0
	case OpGte:
		return r >= 0
	case OpLt:
		return r < 0
	case OpLte:
		return r <= 0
	default:
		return r == 0
	}
}

// Compare orders two values of the same field type. Mismatched types compare
// by their string form.
func Compare(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case uuid.UUID:
		if bv, ok := b.(uuid.UUID); ok {
			return strings.Compare(av.String(), bv.String())
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	}
	return strings.Compare(toString(a), toString(b))
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case uuid.UUID:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Less builds a sort comparator honoring q.Sort.
func Less[T any](q ListQuery, get Getter[T]) func(a, b T) int {
	return func(a, b T) int {
		for _, s := range q.Sort {
			av, bv := get(a, s.Field), get(b, s.Field)
			var r int
			switch {
			case av == nil && bv == nil:
				r = 0
			case av == nil:
				r = -1
			case bv == nil:
				r = 1
			default:
				r = Compare(av, bv)
			}
			if s.Desc {
				r = -r
			}
			if r != 0 {
				return r
			}
		}
		return 0
	}
}
