package cases

// MaxPageSize bounds every enumeration so no call can pull the whole
// store in one response.
const MaxPageSize = 100

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Case `json:"data"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	Total      int64   `json:"totalItems"`
	TotalPages int     `json:"totalPages"`
}

// ClampPage normalizes page/pageSize the same way everywhere: page
// starts at 1, pageSize defaults to 20 and never exceeds MaxPageSize.
func ClampPage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
