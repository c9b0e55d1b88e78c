package query

import (
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	Fields: map[string]Field{
		"name":         {Column: "name", Type: TypeString},
		"status":       {Column: "status", Type: TypeString},
		"budget.total": {Column: "(budget->>'total')::numeric", Type: TypeNumber},
		"createdAt":    {Column: "created_at", Type: TypeTime},
	},
	DefaultLimit: 10,
	DefaultSort:  []SortKey{{Field: "createdAt", Desc: true}},
}

func TestParseDefaults(t *testing.T) {
	q, err := Parse(url.Values{}, testSchema)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 0, q.Offset())
	assert.Equal(t, []SortKey{{Field: "createdAt", Desc: true}}, q.Sort)
	assert.Empty(t, q.Conditions)
}

func TestParseFiltersSortSelect(t *testing.T) {
	v := url.Values{}
	v.Set("status[in]", "active,paused")
	v.Set("budget.total[gte]", "500")
	v.Set("name", "Spring")
	v.Set("sort", "name,-budget.total")
	v.Set("select", "name,status")
	v.Set("page", "3")
	v.Set("limit", "5")

	q, err := Parse(v, testSchema)
	require.NoError(t, err)
	assert.Equal(t, 10, q.Offset())
	assert.Equal(t, []string{"name", "status"}, q.Select)
	assert.Equal(t, []SortKey{{Field: "name"}, {Field: "budget.total", Desc: true}}, q.Sort)
	require.Len(t, q.Conditions, 3)

	// conditions are sorted by parameter name
	assert.Equal(t, Condition{Field: "budget.total", Op: OpGte, Value: 500.0}, q.Conditions[0])
	assert.Equal(t, Condition{Field: "name", Op: OpEq, Value: "Spring"}, q.Conditions[1])
	assert.Equal(t, Condition{Field: "status", Op: OpIn, Value: []any{"active", "paused"}}, q.Conditions[2])
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value string
	}{
		{"unknown field", "owner", "x"},
		{"unknown operator", "status[regex]", ".*"},
		{"operator injection", "status[$where]", "1"},
		{"bad number", "budget.total[gt]", "lots"},
		{"bad date", "createdAt[lt]", "yesterday"},
		{"unknown select", "select", "password"},
		{"unknown sort", "sort", "-password"},
		{"zero page", "page", "0"},
		{"limit too large", "limit", "101"},
		{"empty in", "status[in]", ","},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(url.Values{tt.param: {tt.value}}, testSchema)
			require.Error(t, err)
			assert.True(t, IsQueryError(err))
		})
	}
}

func TestApplyBuildsSQL(t *testing.T) {
	v := url.Values{}
	v.Set("status[in]", "active,paused")
	v.Set("budget.total[lt]", "100")
	q, err := Parse(v, testSchema)
	require.NoError(t, err)

	var w Where
	w.Add("owner_id = ?", "owner")
	q.Apply(&w, testSchema)
	page := q.PageClause(&w)

	assert.Equal(t, " WHERE owner_id = $1 AND (budget->>'total')::numeric < $2 AND status = ANY($3)", w.String())
	assert.Equal(t, " LIMIT $4 OFFSET $5", page)
	assert.Equal(t, []any{"owner", 100.0, []string{"active", "paused"}, 10, 0}, w.Args())
	assert.Equal(t, " ORDER BY created_at DESC, id ASC", q.OrderBy(testSchema))
}

type item struct {
	name   string
	total  float64
	status string
	at     time.Time
}

func getItem(it item, field string) any {
	switch field {
	case "name":
		return it.name
	case "status":
		return it.status
	case "budget.total":
		return it.total
	case "createdAt":
		return it.at
	}
	return nil
}

func TestMatchAndSort(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []item{
		{"a", 50, "active", base},
		{"b", 500, "paused", base.Add(time.Hour)},
		{"c", 900, "draft", base.Add(2 * time.Hour)},
		{"d", 700, "active", base.Add(3 * time.Hour)},
	}

	v := url.Values{}
	v.Set("budget.total[gte]", "100")
	v.Set("status[in]", "active,paused")
	q, err := Parse(v, testSchema)
	require.NoError(t, err)

	var got []item
	for _, it := range items {
		if Match(q, it, getItem) {
			got = append(got, it)
		}
	}
	slices.SortFunc(got, Less(q, getItem))

	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].name)
	assert.Equal(t, "b", got[1].name)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		limit    int
		total    int64
		wantNext bool
		wantPrev bool
	}{
		{"single page", 1, 10, 5, false, false},
		{"exact boundary has no next", 2, 10, 20, false, true},
		{"one past boundary has next", 2, 10, 21, true, true},
		{"first of many", 1, 10, 30, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.wantNext, p.Next != nil)
			assert.Equal(t, tt.wantPrev, p.Prev != nil)
			if p.Next != nil {
				assert.Equal(t, PageRef{Page: tt.page + 1, Limit: tt.limit}, *p.Next)
			}
		})
	}
}

func TestProject(t *testing.T) {
	doc := map[string]any{
		"_id":    "1",
		"name":   "Spring",
		"status": "draft",
		"budget": map[string]any{"total": 10, "currency": "USD"},
	}

	got, err := Project(doc, []string{"name", "budget.total"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"_id":    "1",
		"name":   "Spring",
		"budget": map[string]any{"total": 10.0},
	}, got)

	same, err := Project(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, doc, same)
}
