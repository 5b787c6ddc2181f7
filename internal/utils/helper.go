package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps (Page-1)*Limit within a Postgres OFFSET for any allowed limit.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// Pagination is a page/limit pair parsed from query strings.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePagination never fails: bad input falls back to defaults.
func ParsePagination(page, limit string) Pagination {
	p := Pagination{Page: 1, Limit: DefaultPageSize}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
