package admin

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/inkpress/internal/service"
	"gorm.io/gorm"
)

// Header is a rendered column heading.
type Header struct {
	Label    string
	Sortable bool
	Sorted   bool
	Desc     bool
	SortURL  string
}

// Row is one rendered change list line.
type Row struct {
	ID    uint
	Cells []string
}

// FacetOption is a filter value with the number of rows it would select.
type FacetOption struct {
	Label    string
	Count    int64
	Selected bool
	URL      string
}

// FacetGroup is the sidebar block of one filter.
type FacetGroup struct {
	Label   string
	Options []FacetOption
}

// DateLink is a date hierarchy navigation link.
type DateLink struct {
	Label string
	URL   string
}

// Hierarchy is the drill-down bar over the date hierarchy field.
type Hierarchy struct {
	Back  *DateLink
	Links []DateLink
	Title string
}

// ChangeList is a filtered, searched, ordered and paginated listing.
type ChangeList[T any] struct {
	Title      string
	Search     string
	Searchable bool
	Headers    []Header
	Rows       []Row
	Facets     []FacetGroup
	Hierarchy  *Hierarchy
	Page       *service.Page[T]
	FullCount  int64

	path   string
	values url.Values
}

// builder holds the parsed parameters of one change list request.
type builder[T any] struct {
	m      *ModelAdmin[T]
	gdb    *gorm.DB
	values url.Values
	now    time.Time
	terms  []string
	active map[string]string
	year   int
	month  int
	day    int
}

// ChangeList runs the list query described by values. path is the change list URL used to
// build navigation links and now anchors the relative date ranges.
func (m *ModelAdmin[T]) ChangeList(gdb *gorm.DB, path string, values url.Values, now time.Time) (*ChangeList[T], error) {
	b := &builder[T]{
		m:      m,
		gdb:    gdb,
		values: values,
		now:    now.UTC(),
		terms:  strings.Fields(values.Get("q")),
		active: make(map[string]string),
	}
	for _, f := range m.Filters {
		raw := strings.TrimSpace(values.Get(f.Param()))
		if raw == "" {
			continue
		}
		// 未知取值直接忽略，不参与筛选
		choices, err := b.choices(f)
		if err != nil {
			return nil, err
		}
		if hasChoice(choices, raw) {
			b.active[f.Name] = raw
		}
	}
	if m.DateHierarchy != "" {
		b.year, b.month, b.day = parseDrill(values)
	}

	cl := &ChangeList[T]{
		Title:      m.Title,
		Search:     values.Get("q"),
		Searchable: len(m.SearchFields) > 0,
		path:       path,
		values:     values,
	}

	if err := gdb.Model(new(T)).Count(&cl.FullCount).Error; err != nil {
		return nil, err
	}

	orders := b.ordering()
	query := b.scoped("")
	for _, expr := range orders {
		query = query.Order(expr)
	}
	page, err := service.Paginate[T](query, values.Get("p"), m.perPage(), m.Preloads...)
	if err != nil {
		return nil, err
	}
	cl.Page = page

	cl.Headers = b.headers(cl)
	cl.Rows = make([]Row, 0, len(page.Items))
	for i := range page.Items {
		item := &page.Items[i]
		row := Row{ID: m.Key(item), Cells: make([]string, 0, len(m.Columns))}
		for _, col := range m.Columns {
			row.Cells = append(row.Cells, col.Value(item))
		}
		cl.Rows = append(cl.Rows, row)
	}

	if cl.Facets, err = b.facets(cl); err != nil {
		return nil, err
	}
	if m.DateHierarchy != "" {
		if cl.Hierarchy, err = b.hierarchy(cl); err != nil {
			return nil, err
		}
	}
	return cl, nil
}

// URL returns the change list URL with set applied and the page reset.
func (cl *ChangeList[T]) URL(set map[string]string, drop ...string) string {
	next := url.Values{}
	for key, vals := range cl.values {
		next[key] = append([]string(nil), vals...)
	}
	next.Del("p")
	for _, key := range drop {
		next.Del(key)
	}
	for key, val := range set {
		if val == "" {
			next.Del(key)
			continue
		}
		next.Set(key, val)
	}
	if encoded := next.Encode(); encoded != "" {
		return cl.path + "?" + encoded
	}
	return cl.path
}

// PageURL returns the URL of page number n keeping the current filters.
func (cl *ChangeList[T]) PageURL(n int) string {
	next := url.Values{}
	for key, vals := range cl.values {
		next[key] = append([]string(nil), vals...)
	}
	next.Set("p", strconv.Itoa(n))
	return cl.path + "?" + next.Encode()
}

// scoped builds the filtered query, leaving out the filter named skip.
func (b *builder[T]) scoped(skip string) *gorm.DB {
	query := b.gdb.Model(new(T))
	query = b.applySearch(query)
	for _, f := range b.m.Filters {
		if f.Name == skip {
			continue
		}
		if raw, ok := b.active[f.Name]; ok {
			query = b.applyFilter(query, f, raw)
		}
	}
	return b.applyDrill(query)
}

func (b *builder[T]) applySearch(query *gorm.DB) *gorm.DB {
	if len(b.m.SearchFields) == 0 {
		return query
	}
	for _, term := range b.terms {
		pattern := "%" + escapeLike(term) + "%"
		parts := make([]string, 0, len(b.m.SearchFields))
		args := make([]any, 0, len(b.m.SearchFields))
		for _, field := range b.m.SearchFields {
			parts = append(parts, field+` LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		query = query.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
	return query
}

func (b *builder[T]) applyFilter(query *gorm.DB, f Filter, raw string) *gorm.DB {
	switch f.Kind {
	case BoolFilter:
		switch raw {
		case "1":
			return query.Where(f.Column+" = ?", true)
		case "0":
			return query.Where(f.Column+" = ?", false)
		}
		return query
	case DateFilter:
		start, end, ok := dateRange(raw, b.now)
		if !ok {
			return query
		}
		return query.Where(f.Column+" >= ? AND "+f.Column+" < ?", start, end)
	default:
		return query.Where(f.Column+" = ?", raw)
	}
}

func (b *builder[T]) applyDrill(query *gorm.DB) *gorm.DB {
	if b.year == 0 {
		return query
	}
	start, end := drillRange(b.year, b.month, b.day)
	col := b.m.DateHierarchy
	return query.Where(col+" >= ? AND "+col+" < ?", start, end)
}

func (b *builder[T]) ordering() []string {
	fields := b.m.Ordering
	if raw := strings.TrimSpace(b.values.Get("o")); raw != "" {
		var requested []string
		for _, field := range strings.Split(raw, ",") {
			if _, ok := b.m.orderColumn(strings.TrimPrefix(field, "-")); ok {
				requested = append(requested, field)
			}
		}
		if len(requested) > 0 {
			fields = requested
		}
	}

	exprs := make([]string, 0, len(fields)+1)
	for _, field := range fields {
		desc := strings.HasPrefix(field, "-")
		expr, _ := b.m.orderColumn(strings.TrimPrefix(field, "-"))
		if desc {
			exprs = append(exprs, expr+" desc")
		} else {
			exprs = append(exprs, expr+" asc")
		}
	}
	// 保证分页稳定
	return append(exprs, "id desc")
}

func (b *builder[T]) headers(cl *ChangeList[T]) []Header {
	current := map[string]bool{}
	if raw := strings.TrimSpace(b.values.Get("o")); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			current[strings.TrimPrefix(field, "-")] = strings.HasPrefix(field, "-")
		}
	}

	headers := make([]Header, 0, len(b.m.Columns))
	for _, col := range b.m.Columns {
		h := Header{Label: col.Label, Sortable: col.Order != ""}
		if h.Sortable {
			desc, sorted := current[col.Name]
			h.Sorted, h.Desc = sorted, desc
			next := col.Name
			if sorted && !desc {
				next = "-" + col.Name
			}
			h.SortURL = cl.URL(map[string]string{"o": next})
		}
		headers = append(headers, h)
	}
	return headers
}

func (b *builder[T]) facets(cl *ChangeList[T]) ([]FacetGroup, error) {
	groups := make([]FacetGroup, 0, len(b.m.Filters))
	for _, f := range b.m.Filters {
		choices, err := b.choices(f)
		if err != nil {
			return nil, err
		}

		selected, isActive := b.active[f.Name]
		group := FacetGroup{Label: f.Label}

		all := FacetOption{Label: "All", Selected: !isActive, URL: cl.URL(nil, f.Param()), Count: -1}
		if b.m.ShowFacets {
			if err := b.scoped(f.Name).Count(&all.Count).Error; err != nil {
				return nil, err
			}
		}
		group.Options = append(group.Options, all)

		for _, choice := range choices {
			opt := FacetOption{
				Label:    choice.Label,
				Selected: isActive && selected == choice.Value,
				URL:      cl.URL(map[string]string{f.Param(): choice.Value}),
				Count:    -1,
			}
			if b.m.ShowFacets {
				query := b.applyFilter(b.scoped(f.Name), f, choice.Value)
				if err := query.Count(&opt.Count).Error; err != nil {
					return nil, err
				}
			}
			group.Options = append(group.Options, opt)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (b *builder[T]) choices(f Filter) ([]Choice, error) {
	switch f.Kind {
	case BoolFilter:
		if len(f.Choices) > 0 {
			return f.Choices, nil
		}
		return boolChoices(), nil
	case DateFilter:
		return dateRangeChoices(), nil
	case RelatedFilter:
		var choices []Choice
		err := b.gdb.Table(f.Related.Table).
			Select("CAST(" + f.Related.Key + " AS TEXT) AS value, " + f.Related.Label + " AS label").
			Order(f.Related.Label + " asc").
			Scan(&choices).Error
		return choices, err
	default:
		return f.Choices, nil
	}
}

func (b *builder[T]) hierarchy(cl *ChangeList[T]) (*Hierarchy, error) {
	col := b.m.DateHierarchy
	h := &Hierarchy{}

	var format string
	switch {
	case b.day != 0:
		h.Title = time.Date(b.year, time.Month(b.month), b.day, 0, 0, 0, 0, time.UTC).Format("January 2, 2006")
		h.Back = &DateLink{
			Label: time.Date(b.year, time.Month(b.month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006"),
			URL:   cl.URL(map[string]string{"year": strconv.Itoa(b.year), "month": strconv.Itoa(b.month)}, "day"),
		}
		return h, nil
	case b.month != 0:
		format = "%d"
		h.Title = time.Date(b.year, time.Month(b.month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
		h.Back = &DateLink{Label: strconv.Itoa(b.year), URL: cl.URL(map[string]string{"year": strconv.Itoa(b.year)}, "month", "day")}
	case b.year != 0:
		format = "%m"
		h.Title = strconv.Itoa(b.year)
		h.Back = &DateLink{Label: "All dates", URL: cl.URL(nil, "year", "month", "day")}
	default:
		format = "%Y"
	}

	var raw []string
	err := b.scoped("").
		Distinct("strftime('" + format + "', " + col + ")").
		Pluck("strftime('"+format+"', "+col+")", &raw).Error
	if err != nil {
		return nil, err
	}

	values := make([]int, 0, len(raw))
	for _, r := range raw {
		if n, err := strconv.Atoi(r); err == nil {
			values = append(values, n)
		}
	}
	sort.Ints(values)

	for _, n := range values {
		switch {
		case b.month != 0:
			h.Links = append(h.Links, DateLink{
				Label: time.Date(b.year, time.Month(b.month), n, 0, 0, 0, 0, time.UTC).Format("January 2"),
				URL:   cl.URL(map[string]string{"year": strconv.Itoa(b.year), "month": strconv.Itoa(b.month), "day": strconv.Itoa(n)}),
			})
		case b.year != 0:
			h.Links = append(h.Links, DateLink{
				Label: time.Month(n).String(),
				URL:   cl.URL(map[string]string{"year": strconv.Itoa(b.year), "month": strconv.Itoa(n)}, "day"),
			})
		default:
			h.Links = append(h.Links, DateLink{
				Label: strconv.Itoa(n),
				URL:   cl.URL(map[string]string{"year": strconv.Itoa(n)}, "month", "day"),
			})
		}
	}
	return h, nil
}

// parseDrill reads year, month and day. A level is only honoured when the levels above
// it are present and the resulting date exists.
func parseDrill(values url.Values) (year, month, day int) {
	year, err := strconv.Atoi(values.Get("year"))
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, 0
	}
	month, err = strconv.Atoi(values.Get("month"))
	if err != nil || month < 1 || month > 12 {
		return year, 0, 0
	}
	day, err = strconv.Atoi(values.Get("day"))
	if err != nil || day < 1 {
		return year, month, 0
	}
	if time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Day() != day {
		return year, month, 0
	}
	return year, month, day
}

func drillRange(year, month, day int) (time.Time, time.Time) {
	switch {
	case day != 0:
		start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 0, 1)
	case month != 0:
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	default:
		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0)
	}
}

// dateRange resolves a relative range key to a half-open UTC interval.
func dateRange(key string, now time.Time) (time.Time, time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)
	switch key {
	case RangeToday:
		return today, tomorrow, true
	case RangePast7Days:
		return today.AddDate(0, 0, -7), tomorrow, true
	case RangeThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), true
	case RangeThisYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

func hasChoice(choices []Choice, value string) bool {
	for _, choice := range choices {
		if choice.Value == value {
			return true
		}
	}
	return false
}
