package domain

// PageRequest selects a window of a listing. Pages are zero-based; Size is
// clamped by the service to 1..100.
type PageRequest struct {
	Page           int
	Size           int
	SortBy         string
	SortDescending bool
}

// Page is one window of a listing plus the totals a client needs to paginate.
type Page[T any] struct {
	Content          []T   `json:"content"`
	Page             int   `json:"page"`
	Size             int   `json:"size"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	NumberOfElements int   `json:"numberOfElements"`
}

// NewPageFrom rebuilds a page around a transformed content slice, keeping
// the pagination totals of the source page.
func NewPageFrom[T, U any](content []T, src Page[U]) Page[T] {
	return Page[T]{
		Content:          content,
		Page:             src.Page,
		Size:             src.Size,
		TotalElements:    src.TotalElements,
		TotalPages:       src.TotalPages,
		NumberOfElements: len(content),
	}
}

// NewPage assembles a Page from a result window and the total row count.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:          content,
		Page:             req.Page,
		Size:             req.Size,
		TotalElements:    total,
		TotalPages:       totalPages,
		NumberOfElements: len(content),
	}
}
