package helpers

import (
	"net/http"
	"strconv"

	"eventra/internal/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// pageSizeKeys are read in order; "limit" is what the web client sends.
var pageSizeKeys = []string{"page_size", "limit"}

// ParsePagination reads page and page size from the query string. Missing or
// invalid values use the defaults and sizes above MaxPageSize are clamped.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	params := domain.PaginationParams{Page: DefaultPage, PageSize: DefaultPageSize}
	if v, ok := positiveInt(q.Get("page")); ok {
		params.Page = v
	}
	for _, k := range pageSizeKeys {
		if v, ok := positiveInt(q.Get(k)); ok {
			params.PageSize = min(v, MaxPageSize)
			break
		}
	}
	return params
}

func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// PaginationMeta accompanies every paginated list.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	meta := PaginationMeta{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		meta.TotalPages = (total + pageSize - 1) / pageSize
	}
	return meta
}
