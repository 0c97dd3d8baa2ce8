package domain

import (
	"net/url"
	"strconv"
)

// Filter describes the active receipt query. It is a value object: callers
// build a new Filter instead of mutating one in place, and the list store
// resets pagination whenever the filter is replaced. Empty/zero fields mean
// "no predicate"; the amount bounds are pointers so an explicit 0 still
// filters.
type Filter struct {
	Vendor         string
	Category       string
	Year           int
	Month          int
	MinAmount      *float64
	MaxAmount      *float64
	IncludeDeleted bool
}

// Validate rejects predicate values the backend would misinterpret.
func (f Filter) Validate() error {
	if f.Month < 0 || f.Month > 12 {
		return WrapError(ErrInvalidInput, "validate filter", errNote("month must be 1-12"))
	}
	if f.Year < 0 {
		return WrapError(ErrInvalidInput, "validate filter", errNote("year must be positive"))
	}
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return WrapError(ErrInvalidInput, "validate filter", errNote("min_amount exceeds max_amount"))
	}
	return nil
}

// Query projects the filter plus paging onto the backend's query parameters.
func (f Filter) Query(limit, offset int) url.Values {
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	values.Set("offset", strconv.Itoa(offset))
	if f.Vendor != "" {
		values.Set("vendor", f.Vendor)
	}
	if f.Category != "" {
		values.Set("category", f.Category)
	}
	if f.Year > 0 {
		values.Set("year", strconv.Itoa(f.Year))
	}
	if f.Month > 0 {
		values.Set("month", strconv.Itoa(f.Month))
	}
	if f.MinAmount != nil {
		values.Set("min_amount", strconv.FormatFloat(*f.MinAmount, 'f', -1, 64))
	}
	if f.MaxAmount != nil {
		values.Set("max_amount", strconv.FormatFloat(*f.MaxAmount, 'f', -1, 64))
	}
	if f.IncludeDeleted {
		values.Set("include_deleted", "true")
	}
	return values
}

// SavedFilter is the slice of filter state that survives restarts: the
// free-text vendor search and the category selection.
type SavedFilter struct {
	Vendor   string `json:"vendor"`
	Category string `json:"category"`
}

// Remembered extracts the persistable scalars from a filter.
func (f Filter) Remembered() SavedFilter {
	return SavedFilter{Vendor: f.Vendor, Category: f.Category}
}

// Apply overlays the saved scalars onto a filter, leaving other predicates
// untouched, and returns the combined value.
func (s SavedFilter) Apply(f Filter) Filter {
	f.Vendor = s.Vendor
	f.Category = s.Category
	return f
}
