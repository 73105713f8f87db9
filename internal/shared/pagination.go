package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, size, total int) Pagination {
	if size <= 0 {
		size = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(size)))
	return Pagination{Page: page, Size: size, Total: total, TotalPages: totalPages}
}

// Page is the standard list envelope returned by all list endpoints.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// NewPage wraps items in the list envelope, normalising page and size.
func NewPage[T any](items []T, total, page, size int) Page[T] {
	p := NewPagination(page, size, total)
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, Size: p.Size}
}
