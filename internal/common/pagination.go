package common

import (
	"net/http"
	"strconv"
	"strings"
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ReadPage parses ?page= and ?limit=. A missing or invalid limit falls back
// to def, and max > 0 caps it.
func ReadPage(r *http.Request, def, max int) Page {
	p := Page{Number: QueryInt(r, "page", 1), Size: QueryInt(r, "limit", def)}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = def
	}
	if max > 0 && p.Size > max {
		p.Size = max
	}
	return p
}

// Pagination is the metadata attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Meta describes p against a total row count.
func (p Page) Meta(total int64) Pagination {
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return Pagination{Page: p.Number, PerPage: p.Size, TotalItems: int(total), TotalPages: pages}
}

// WriteList renders a page of items with its pagination block and X-Total-Count.
func WriteList(w http.ResponseWriter, items any, meta Pagination) {
	w.Header().Set("X-Total-Count", strconv.Itoa(meta.TotalItems))
	JSON(w, http.StatusOK, map[string]any{"data": items, "pagination": meta})
}

// QueryInt reads an integer query parameter, returning def when it is absent or malformed.
func QueryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
