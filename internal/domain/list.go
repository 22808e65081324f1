package domain

// SortOrder represents the sort direction.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortField represents the field to sort by.
type SortField string

const (
	SortFieldPostedAt  SortField = "posted_at"
	SortFieldCreatedAt SortField = "created_at"
)

// ListParams holds filter and pagination parameters for item queries.
type ListParams struct {
	// Filters
	ProviderID      string   // Filter by provider (empty = all)
	Kind            ItemKind // Filter by item kind (post, event, review)
	Tag             string   // Filter by tag/category
	IncludeInactive bool     // Include soft-deleted items

	// Sorting
	SortBy    SortField // Field to sort by (default: posted_at)
	SortOrder SortOrder // Sort direction (default: desc)

	// Pagination
	Page     int // Page number (1-indexed)
	PageSize int // Items per page
}

// DefaultListParams returns list params with sensible defaults.
func DefaultListParams() ListParams {
	return ListParams{
		SortBy:    SortFieldPostedAt,
		SortOrder: SortOrderDesc,
		Page:      1,
		PageSize:  20,
	}
}

// Validate clamps list params to acceptable bounds and fills defaults.
func (p *ListParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	if p.SortBy == "" {
		p.SortBy = SortFieldPostedAt
	}
	if p.SortOrder == "" {
		p.SortOrder = SortOrderDesc
	}
}

// Offset calculates the database offset for pagination.
func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the page size (alias for clarity).
func (p *ListParams) Limit() int {
	return p.PageSize
}

// ListResult holds paginated item results.
type ListResult struct {
	Items      []*Item `json:"items"`
	Total      int64   `json:"total"`       // Total matching records
	Page       int     `json:"page"`        // Current page (1-indexed)
	PageSize   int     `json:"page_size"`   // Items per page
	TotalPages int     `json:"total_pages"` // Total number of pages
}

// NewListResult creates a new ListResult with calculated pagination.
func NewListResult(items []*Item, total int64, params ListParams) *ListResult {
	totalPages := int(total) / params.PageSize
	if int(total)%params.PageSize > 0 {
		totalPages++
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}
}
