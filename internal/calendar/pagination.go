package calendar

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// PageRequest — номер страницы (с 1) и её размер из query списка.
type PageRequest struct {
	Page int
	Size int
}

// normalized подставляет дефолты и ограничивает размер сверху.
func (r PageRequest) normalized() PageRequest {
	if r.Page <= 0 {
		r.Page = 1
	}
	switch {
	case r.Size <= 0:
		r.Size = DefaultPageSize
	case r.Size > MaxPageSize:
		r.Size = MaxPageSize
	}
	return r
}

// Page — одна страница списка и сведения обо всём списке.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Paginate вырезает из уже отсортированного items страницу req.
// Страница за концом списка пустая, Total и TotalPages при этом честные.
func Paginate[T any](items []T, req PageRequest) Page[T] {
	req = req.normalized()

	total := len(items)
	from := min((req.Page-1)*req.Size, total)
	to := min(from+req.Size, total)

	// пустой список отдаём как [], не null
	window := make([]T, 0, to-from)
	window = append(window, items[from:to]...)

	return Page[T]{
		Items:      window,
		Page:       req.Page,
		PageSize:   req.Size,
		Total:      total,
		TotalPages: (total + req.Size - 1) / req.Size,
		HasNext:    to < total,
		HasPrev:    req.Page > 1,
	}
}
