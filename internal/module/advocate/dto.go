package advocate

import (
	"strings"

	"github.com/simp-lee/advocates/internal/domain"
)

// ListAdvocatesRequest holds the query parameters of GET /api/advocates.
type ListAdvocatesRequest struct {
	Keyword string `form:"keyword" binding:"max=200"`
	SortBy  string `form:"sortBy" binding:"max=64"`
	SortDir string `form:"sortDir" binding:"max=16"`
}

// SearchQuery converts the request into a domain query. sortDir is matched
// case-insensitively here; an empty value means ascending.
func (r ListAdvocatesRequest) SearchQuery() domain.SearchQuery {
	dir := strings.ToLower(strings.TrimSpace(r.SortDir))
	if dir == "" {
		dir = string(domain.SortAsc)
	}
	return domain.SearchQuery{
		Keyword: r.Keyword,
		Sort: domain.SortSpec{
			Key:       r.SortBy,
			Direction: domain.SortDirection(dir),
		},
	}
}

// ListAdvocatesResponse is the data payload of a successful listing.
type ListAdvocatesResponse struct {
	Data []domain.Advocate `json:"data"`
}

// SeedResponse is the flat envelope returned by POST /api/seed.
type SeedResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Count   int               `json:"count"`
	Records []domain.Advocate `json:"records"`
}
