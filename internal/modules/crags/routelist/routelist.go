// Package routelist holds the search and paging state of a crag's route list.
//
// A List is built per request from the crag's routes. Mutations are relative
// (search, page size, previous, next); the current page is clamped after each
// one, so no sequence of calls can leave it outside [1, TotalPages].
package routelist

import (
	"strings"

	"cragcast/internal/modules/crags/types"
)

type List struct {
	all      []types.Route
	filtered []types.Route
	term     string
	needle   string
	pageSize int
	page     int
}

// New builds a list over routes with every route visible. A pageSize below 1
// is treated as 1.
func New(routes []types.Route, pageSize int) *List {
	if pageSize < 1 {
		pageSize = 1
	}
	l := &List{
		all:      routes,
		pageSize: pageSize,
		page:     1,
	}
	l.filter()
	return l
}

// SetSearchTerm keeps the routes whose name, type or grade contains term,
// case-insensitively, and returns to the first page.
func (l *List) SetSearchTerm(term string) {
	l.term = term
	l.needle = strings.ToLower(l.term)
	l.filter()
	l.page = 1
	l.clamp()
}

// SetPageSize replaces the page size and returns to the first page.
// Non-positive sizes are ignored.
func (l *List) SetPageSize(n int) {
	if n < 1 {
		return
	}
	l.pageSize = n
	l.page = 1
	l.clamp()
}

// Prev steps back one page; no-op on the first page.
func (l *List) Prev() {
	if l.IsFirst() {
		return
	}
	l.page--
}

// Next steps forward one page; no-op on the last page.
func (l *List) Next() {
	if l.IsLast() {
		return
	}
	l.page++
}

// VisibleSlice returns the routes of the current page in list order.
func (l *List) VisibleSlice() []types.Route {
	start := (l.page - 1) * l.pageSize
	if start >= len(l.filtered) {
		return nil
	}
	end := min(start+l.pageSize, len(l.filtered))
	return l.filtered[start:end]
}

func (l *List) TotalPages() int {
	if len(l.filtered) == 0 {
		return 1
	}
	return (len(l.filtered) + l.pageSize - 1) / l.pageSize
}

func (l *List) CurrentPage() int { return l.page }

func (l *List) PageSize() int { return l.pageSize }

// SearchTerm is the term as given.
func (l *List) SearchTerm() string { return l.term }

func (l *List) FilteredLen() int { return len(l.filtered) }

func (l *List) Len() int { return len(l.all) }

func (l *List) IsFirst() bool { return l.page <= 1 }

func (l *List) IsLast() bool { return l.page >= l.TotalPages() }

func (l *List) filter() {
	if l.needle == "" {
		l.filtered = l.all
		return
	}
	out := make([]types.Route, 0, len(l.all))
	for _, r := range l.all {
		if matches(r, l.needle) {
			out = append(out, r)
		}
	}
	l.filtered = out
}

func matches(r types.Route, term string) bool {
	return strings.Contains(strings.ToLower(r.Name), term) ||
		strings.Contains(strings.ToLower(r.Type), term) ||
		strings.Contains(strings.ToLower(r.Grade), term)
}

func (l *List) clamp() {
	if total := l.TotalPages(); l.page > total {
		l.page = total
	}
	if l.page < 1 {
		l.page = 1
	}
}
