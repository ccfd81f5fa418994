package feedcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/movie-recommender/config"
	"github.com/google/uuid"
)

var (
	// ErrCursorOutOfRange is returned when reaching the cursor would take more window
	// fetches than a single request may perform
	ErrCursorOutOfRange = errors.New("cursor is beyond the reachable feed windows")

	// ErrInvalidPage is returned for a negative cursor or a page size below one
	ErrInvalidPage = errors.New("cursor must be non-negative and page size positive")
)

// FetchFunc produces up to limit ranked items starting at offset. Returning fewer than
// limit items signals the end of the feed.
type FetchFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Page is one slice of a cached feed. A page never spans two windows.
type Page[T any] struct {
	Items      []T
	NextCursor int
	HasMore    bool
	FeedID     uuid.UUID
}

// Settings tunes window size, per-request fetch budget and entry lifetime
type Settings struct {
	WindowSize           int
	MaxWindowsPerRequest int
	TTL                  time.Duration
}

// NewSettings parses the cache config section, applying defaults for empty values
func NewSettings(cfg *config.CacheConfig) (Settings, error) {
	s := Settings{
		WindowSize:           500,
		MaxWindowsPerRequest: 2,
		TTL:                  15 * time.Minute,
	}
	if cfg == nil {
		return s, nil
	}

	if cfg.WindowSize != "" {
		n, err := strconv.Atoi(cfg.WindowSize)
		if err != nil || n < 1 {
			return s, fmt.Errorf("invalid feed window size '%s'", cfg.WindowSize)
		}
		s.WindowSize = n
	}

	if cfg.MaxWindowsPerRequest != "" {
		n, err := strconv.Atoi(cfg.MaxWindowsPerRequest)
		if err != nil || n < 1 {
			return s, fmt.Errorf("invalid max windows per request '%s'", cfg.MaxWindowsPerRequest)
		}
		s.MaxWindowsPerRequest = n
	}

	if cfg.TTL != "" {
		d, err := time.ParseDuration(cfg.TTL)
		if err != nil {
			return s, fmt.Errorf("invalid feed cache ttl '%s': %v", cfg.TTL, err)
		}
		if d <= 0 {
			return s, fmt.Errorf("invalid feed cache ttl '%s': must be positive", cfg.TTL)
		}
		s.TTL = d
	}

	return s, nil
}
