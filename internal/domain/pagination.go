package domain

const defaultPageSize = 20

// PaginationParams selects one page of a list. Pages are 1-based.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit is the row count for the page; non-positive sizes fall back to 20.
func (p PaginationParams) Limit() int {
	if p.PageSize < 1 {
		return defaultPageSize
	}
	return p.PageSize
}

// Offset is the number of rows before the page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
