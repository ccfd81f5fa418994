package utils

import (
	"errors"
	"math"
	"strconv"
)

var ErrInvalidCursor = errors.New("cursor must be a non-negative integer")

// PaginationMeta represents pagination metadata
type PaginationMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// CalculatePagination calculates pagination metadata
func CalculatePagination(total int64, page, limit int) PaginationMeta {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}

	return PaginationMeta{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}
}

// ParseCursor reads an item-offset cursor; an empty cursor starts from the beginning
func ParseCursor(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalidCursor
	}
	return n, nil
}

// FormatCursor renders an item offset as an opaque cursor string
func FormatCursor(offset int) string {
	return strconv.Itoa(offset)
}

// ParseLimit reads a page size, falling back to def when empty and clamping to [1, max]
func ParseLimit(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	return ClampLimit(n, max), nil
}

// ClampLimit bounds a page size to [1, max]
func ClampLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}

// IntToString converts an integer to string
func IntToString(i int) string {
	return strconv.Itoa(i)
}
