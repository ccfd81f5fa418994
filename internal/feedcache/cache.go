package feedcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/dustin/movie-recommender/pkg/metrics"
	"github.com/google/uuid"
)

// entry is the cached feed of one key. windows only ever grow by whole windows.
type entry[T any] struct {
	feedID    uuid.UUID
	windows   [][]T
	exhausted bool
	expiresAt time.Time
}

// slot serializes work on one key. sem is held for the whole lookup-fetch-commit
// sequence; gen is bumped by every invalidation so a fetch started before it never commits.
type slot[T any] struct {
	sem   chan struct{}
	refs  int
	gen   uint64
	entry *entry[T]
}

// Cache is a process-wide windowed feed cache keyed by user. Requests for the same key
// are serialized; different keys never wait on each other.
type Cache[T any] struct {
	mu       sync.Mutex
	slots    map[string]*slot[T]
	settings Settings
	now      func() time.Time
	logger   *logger.Logger
}

// NewCache creates an empty cache
func NewCache[T any](settings Settings, log *logger.Logger) *Cache[T] {
	return &Cache[T]{
		slots:    make(map[string]*slot[T]),
		settings: settings,
		now:      time.Now,
		logger:   log.WithComponent("feed-cache"),
	}
}

// GetPage serves items [cursor, cursor+pageSize) clipped to the window containing cursor,
// fetching missing windows through fetch. Nothing is committed when any fetch fails.
func (c *Cache[T]) GetPage(ctx context.Context, key string, cursor, pageSize int, fetch FetchFunc[T]) (*Page[T], error) {
	if cursor < 0 || pageSize < 1 {
		return nil, ErrInvalidPage
	}

	s := c.acquire(key)
	defer c.release(key, s)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	now := c.now()

	c.mu.Lock()
	if s.entry != nil && now.After(s.entry.expiresAt) {
		s.entry = nil
		metrics.FeedCacheRequests.WithLabelValues("expired").Inc()
	}
	current := s.entry
	gen := s.gen
	c.mu.Unlock()

	ws := c.settings.WindowSize
	windowIdx := cursor / ws

	var (
		windows   [][]T
		exhausted bool
		feedID    uuid.UUID
	)
	if current != nil {
		windows = current.windows
		exhausted = current.exhausted
		feedID = current.feedID
	} else {
		feedID = uuid.New()
	}

	if windowIdx >= len(windows) && !exhausted {
		needed := windowIdx + 1 - len(windows)
		if needed > c.settings.MaxWindowsPerRequest {
			return nil, ErrCursorOutOfRange
		}
		metrics.FeedCacheRequests.WithLabelValues("miss").Inc()

		grown := make([][]T, len(windows), windowIdx+1)
		copy(grown, windows)
		for i := len(windows); i <= windowIdx; i++ {
			items, err := fetch(ctx, i*ws, ws)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch feed window %d: %w", i, err)
			}
			if len(items) > ws {
				items = items[:ws]
			}
			grown = append(grown, items)
			if len(items) < ws {
				exhausted = true
				break
			}
		}
		windows = grown

		c.mu.Lock()
		if s.gen == gen {
			s.entry = &entry[T]{
				feedID:    feedID,
				windows:   windows,
				exhausted: exhausted,
				expiresAt: now.Add(c.settings.TTL),
			}
		} else {
			metrics.FeedCacheDiscards.Inc()
			c.logger.Debug("Discarding feed windows fetched before invalidation for " + key)
		}
		c.mu.Unlock()
	} else {
		metrics.FeedCacheRequests.WithLabelValues("hit").Inc()
	}

	return paginate(windows, exhausted, feedID, cursor, pageSize, ws), nil
}

// paginate cuts a page out of the window that contains cursor
func paginate[T any](windows [][]T, exhausted bool, feedID uuid.UUID, cursor, pageSize, ws int) *Page[T] {
	windowIdx := cursor / ws
	if windowIdx >= len(windows) {
		// the feed ended in an earlier window
		return &Page[T]{Items: []T{}, NextCursor: cursor, HasMore: false, FeedID: feedID}
	}

	win := windows[windowIdx]
	start := windowIdx * ws
	local := cursor - start

	items := []T{}
	if local < len(win) {
		end := min(local+pageSize, len(win))
		items = append(items, win[local:end]...)
	}

	next := min(cursor+pageSize, start+ws)
	hasMore := true
	if exhausted && windowIdx == len(windows)-1 && cursor+len(items) >= start+len(win) {
		hasMore = false
		next = cursor + len(items)
	}

	return &Page[T]{Items: items, NextCursor: next, HasMore: hasMore, FeedID: feedID}
}

// Invalidate drops the cached feed of key without waiting for in-flight fetches
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[key]
	if !ok {
		return
	}
	s.gen++
	s.entry = nil
	if s.refs == 0 {
		delete(c.slots, key)
	}
	metrics.FeedCacheInvalidations.Inc()
}

// Sweep removes expired entries that no request is using and returns how many were removed
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, s := range c.slots {
		if s.refs > 0 {
			continue
		}
		if s.entry == nil || now.After(s.entry.expiresAt) {
			delete(c.slots, key)
			removed++
		}
	}

	metrics.FeedCacheEntries.Set(float64(c.lenLocked()))
	return removed
}

// Len returns the number of cached feeds
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lenLocked()
}

func (c *Cache[T]) lenLocked() int {
	n := 0
	for _, s := range c.slots {
		if s.entry != nil {
			n++
		}
	}
	return n
}

func (c *Cache[T]) acquire(key string) *slot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[key]
	if !ok {
		s = &slot[T]{sem: make(chan struct{}, 1)}
		c.slots[key] = s
	}
	s.refs++
	return s
}

func (c *Cache[T]) release(key string, s *slot[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s.refs--
	if s.refs == 0 && s.entry == nil && c.slots[key] == s {
		delete(c.slots, key)
	}
}
