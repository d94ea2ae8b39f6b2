// Package dto provides the request and response bodies of the HTTP API.
package dto

import (
	"charterbooks/internal/domain"
)

// --- Pagination ---

// PaginationRequest contains limit/offset paging parameters.
type PaginationRequest struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
	Search string `form:"search"`
	Order  string `form:"orderBy"`
}

// ToListFilter converts paging parameters to a domain filter.
func (p PaginationRequest) ToListFilter() domain.ListFilter {
	f := domain.DefaultListFilter()
	if p.Limit > 0 {
		f.Limit = p.Limit
	}
	f.Offset = p.Offset
	f.Search = p.Search
	if p.Order != "" {
		f.OrderBy = p.Order
	}
	return f
}

// ListResponse wraps one page of results.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Errors ---

// ErrorResponse is the body written by the error middleware.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Actions ---

// VoidRequest carries the reason recorded in the internal notes.
type VoidRequest struct {
	Reason string `json:"reason" binding:"required"`
}
