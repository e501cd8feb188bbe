package domain

// Pagination bounds
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageRequest selects one page of a filtered listing.
type PageRequest struct {
	Page   int
	Limit  int
	Search string
}

// Normalize fills defaults for zero values and rejects out-of-range input.
func (r PageRequest) Normalize() (PageRequest, error) {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.Limit == 0 {
		r.Limit = DefaultPageLimit
	}
	if r.Page < 1 {
		return r, NewValidationError("page", "must be at least 1", ErrValidation)
	}
	if r.Limit < 1 || r.Limit > MaxPageLimit {
		return r, NewValidationError("limit", "must be between 1 and 100", ErrValidation)
	}
	return r, nil
}

// Offset is the number of rows skipped before this page.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// Page is one page of results together with the unpaginated total.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}
