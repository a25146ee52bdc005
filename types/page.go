package types

// Page is the uniform shape for paginated list results.
type Page[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	HasMore    bool `json:"has_more"`
}

// NewPage builds a Page from one window of results. HasMore is true when
// rows exist beyond offset+len(items). A negative offset counts as zero,
// matching how the store drivers treat it.
func NewPage[T any](items []T, totalCount, offset int) Page[T] {
	if offset < 0 {
		offset = 0
	}
	return Page[T]{
		Items:      items,
		TotalCount: totalCount,
		HasMore:    offset+len(items) < totalCount,
	}
}
