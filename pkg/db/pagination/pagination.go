// Package pagination carries limit/offset paging through query layers.
package pagination

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

type Pagination struct {
	Limit  int
	Offset int
}

// Normalize clamps the page size into the allowed range.
func (p Pagination) Normalize() Pagination {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
