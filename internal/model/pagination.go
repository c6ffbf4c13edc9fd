package model

import "math"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (MaxPage-1)*MaxPageLimit within an int
	MaxPage = math.MaxInt / MaxPageLimit
)

// PageRequest is a 1-based page number and a page size
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the page to [1, MaxPage] and the limit to [1, MaxPageLimit]
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset is the number of rows skipped before this page
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the response envelope shared by every list endpoint
type Page[T any] struct {
	Data            []T   `json:"data"`
	Total           int64 `json:"total"`
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// NewPage builds the envelope for data found at req out of total rows
func NewPage[T any](data []T, total int64, req PageRequest) Page[T] {
	req = req.Normalize()
	if data == nil {
		data = []T{}
	}
	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return Page[T]{
		Data:            data,
		Total:           total,
		Page:            req.Page,
		Limit:           req.Limit,
		TotalPages:      totalPages,
		HasNextPage:     req.Page < totalPages,
		HasPreviousPage: req.Page > 1,
	}
}

// Paginate slices an in-memory result set into a page
func Paginate[T any](all []T, req PageRequest) Page[T] {
	req = req.Normalize()
	total := len(all)
	start := req.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := start + req.Limit
	if end > total {
		end = total
	}
	return NewPage(all[start:end], int64(total), req)
}
