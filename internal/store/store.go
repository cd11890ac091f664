// Package store holds the persistence sentinels and paging shared by the
// memory and postgres backends.
package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("store: conflict")
)

// Page selects a window of a list. A zero Limit returns every row.
type Page struct {
	Limit  int
	Offset int
}

// NewPage converts 1-based page numbers into a Page.
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 0 {
		perPage = 0
	}
	return Page{Limit: perPage, Offset: (page - 1) * perPage}
}

// Window applies p to a slice length, returning the bounds to slice with.
func (p Page) Window(n int) (start, end int) {
	start = p.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = n
	if p.Limit > 0 && start+p.Limit < n {
		end = start + p.Limit
	}
	return start, end
}
