package shared

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 200

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string

	IsActive   *bool
	CategoryID *uuid.UUID
}

// Offset derives the row offset from page and limit.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}

// FiltersFromRequest builds ListFilters out of common query parameters.
func FiltersFromRequest(r *http.Request) ListFilters {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	filters := ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	if raw := q.Get("is_active"); raw != "" {
		isActive := raw == "true"
		filters.IsActive = &isActive
	}
	if raw := q.Get("category_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filters.CategoryID = &id
		}
	}
	return filters
}
