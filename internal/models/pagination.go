package models

// DefaultPageSize browse page size
const DefaultPageSize = 10

// Page one slice of a result set. Page numbers start at 1 and are echoed back;
// the server keeps no cursor.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Paginate cuts items into pages of size (DefaultPageSize when <= 0) and returns
// page, clamped to [1, max(1, totalPages)].
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + size - 1) / size
	last := totalPages
	if last < 1 {
		last = 1
	}
	if page < 1 {
		page = 1
	}
	if page > last {
		page = last
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{
		Items:      out,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
	}
}
