package service

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// PostsPerPage is the page size of the public post listing.
const PostsPerPage = 3

// Page is one slice of a paginated result.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	PerPage  int
	Total    int64
}

// HasPrevious reports whether a page precedes this one.
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

// HasNext reports whether a page follows this one.
func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

// HasOtherPages reports whether the result spans more than one page.
func (p *Page[T]) HasOtherPages() bool { return p.NumPages > 1 }

func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }

func (p *Page[T]) NextNumber() int { return p.Number + 1 }

// StartIndex is the 1-based position of the first item on the page, 0 when empty.
func (p *Page[T]) StartIndex() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Number-1)*p.PerPage + 1
}

// EndIndex is the 1-based position of the last item on the page.
func (p *Page[T]) EndIndex() int {
	if p.Total == 0 {
		return 0
	}
	return p.StartIndex() + len(p.Items) - 1
}

// NumPages returns how many pages total items fill; an empty result still has one page.
func NumPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// ResolvePage turns the raw page parameter into a page number. Missing or non-integer
// values fall back to the first page; numbers below 1 or past the end clamp to the last.
func ResolvePage(raw string, numPages int) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 1
	}
	number, err := strconv.Atoi(trimmed)
	if err != nil {
		return 1
	}
	if number < 1 || number > numPages {
		return numPages
	}
	return number
}

// Paginate counts query and loads the requested page of it. query must carry its own
// filters and ordering; preloads are only applied to the page fetch.
func Paginate[T any](query *gorm.DB, rawPage string, perPage int, preloads ...string) (*Page[T], error) {
	if perPage <= 0 {
		perPage = 10
	}

	page := &Page[T]{PerPage: perPage}
	if err := query.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return nil, err
	}

	page.NumPages = NumPages(page.Total, perPage)
	page.Number = ResolvePage(rawPage, page.NumPages)

	fetch := query.Session(&gorm.Session{})
	for _, preload := range preloads {
		fetch = fetch.Preload(preload)
	}

	items := make([]T, 0, perPage)
	if err := fetch.Limit(perPage).Offset((page.Number - 1) * perPage).Find(&items).Error; err != nil {
		return nil, err
	}
	page.Items = items
	return page, nil
}
