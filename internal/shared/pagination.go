package shared

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page carries the offset window requested by a list endpoint.
type Page struct {
	Page   int
	Size   int
	Offset int
	Query  string
}

// NewPage normalises page and size into an offset window.
func NewPage(page, size int) Page {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return Page{Page: page, Size: size, Offset: (page - 1) * size}
}

// PageFromRequest reads page, size and q from the query string.
func PageFromRequest(r *http.Request) Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	p := NewPage(page, size)
	p.Query = strings.TrimSpace(q.Get("q"))
	return p
}
