package domain

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// TotalPages is ceil(total/limit); zero when there is nothing to show.
func (p Page) TotalPages(total int64) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	l := int64(p.Limit)
	return int((total + l - 1) / l)
}

// Paged is one page of results.
type Paged[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	Total      int64
}
