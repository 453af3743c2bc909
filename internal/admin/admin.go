// Package admin 描述后台列表页的声明式配置：展示列、筛选器、搜索字段、默认排序与日期层级。
package admin

import (
	"fmt"
	"strings"
)

// ListPerPage is the page size of admin change lists.
const ListPerPage = 100

// FilterKind selects how a filter turns its query value into a condition.
type FilterKind int

const (
	// ChoiceFilter matches a column against a fixed set of values.
	ChoiceFilter FilterKind = iota
	// BoolFilter matches a boolean column with "1" or "0".
	BoolFilter
	// DateFilter narrows a timestamp column to a named range.
	DateFilter
	// RelatedFilter matches a foreign key against rows of another table.
	RelatedFilter
)

// Date range keys accepted by DateFilter.
const (
	RangeToday      = "today"
	RangePast7Days  = "past_7_days"
	RangeThisMonth  = "this_month"
	RangeThisYear   = "this_year"
	dateRangeSuffix = "__range"
)

// Choice is one selectable filter value.
type Choice struct {
	Value string
	Label string
}

// Related names the table a RelatedFilter loads its choices from.
type Related struct {
	Table string
	Key   string
	Label string
}

// Filter is a list_filter entry.
type Filter struct {
	Name    string
	Label   string
	Column  string
	Kind    FilterKind
	Choices []Choice
	Related *Related
}

// Param returns the query parameter that carries the filter value.
func (f Filter) Param() string {
	if f.Kind == DateFilter {
		return f.Name + dateRangeSuffix
	}
	return f.Name
}

// Column is a list_display entry. Order is the SQL expression used when sorting by it;
// an empty Order makes the column unsortable.
type Column[T any] struct {
	Name  string
	Label string
	Order string
	Value func(*T) string
}

// ModelAdmin declares how one model is listed in the admin.
type ModelAdmin[T any] struct {
	Name          string
	Title         string
	Columns       []Column[T]
	Filters       []Filter
	SearchFields  []string
	Ordering      []string
	DateHierarchy string
	ShowFacets    bool
	Preloads      []string
	Key           func(*T) uint
	PerPage       int
}

// Validate checks that ordering and filters reference declared columns.
func (m *ModelAdmin[T]) Validate() error {
	if m.Key == nil {
		return fmt.Errorf("admin %s: key func is required", m.Name)
	}
	for _, field := range m.Ordering {
		if _, ok := m.orderColumn(strings.TrimPrefix(field, "-")); !ok {
			return fmt.Errorf("admin %s: ordering field %q is not a sortable column", m.Name, field)
		}
	}
	for _, f := range m.Filters {
		if f.Column == "" {
			return fmt.Errorf("admin %s: filter %q has no column", m.Name, f.Name)
		}
		if f.Kind == RelatedFilter && f.Related == nil {
			return fmt.Errorf("admin %s: related filter %q has no source", m.Name, f.Name)
		}
	}
	return nil
}

func (m *ModelAdmin[T]) orderColumn(name string) (string, bool) {
	for _, col := range m.Columns {
		if col.Name == name && col.Order != "" {
			return col.Order, true
		}
	}
	return "", false
}

func (m *ModelAdmin[T]) perPage() int {
	if m.PerPage > 0 {
		return m.PerPage
	}
	return ListPerPage
}

func dateRangeChoices() []Choice {
	return []Choice{
		{Value: RangeToday, Label: "Today"},
		{Value: RangePast7Days, Label: "Past 7 days"},
		{Value: RangeThisMonth, Label: "This month"},
		{Value: RangeThisYear, Label: "This year"},
	}
}

func boolChoices() []Choice {
	return []Choice{{Value: "1", Label: "Yes"}, {Value: "0", Label: "No"}}
}
