package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/movie-recommender/internal/recommendation"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/dustin/movie-recommender/pkg/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Settings tunes when the breaker opens and how long it stays open
type Settings struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultSettings opens after half of at least 10 calls in a minute fail, and probes again after 30s
func DefaultSettings() Settings {
	return Settings{
		Name:         "vector-index",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.5,
	}
}

// GuardedIndex wraps a vector index with a circuit breaker. Rejected calls fail fast with
// recommendation.ErrIndexUnavailable.
type GuardedIndex struct {
	index  recommendation.VectorIndex
	cb     *gobreaker.CircuitBreaker[[]recommendation.Candidate]
	logger *logger.Logger
}

// NewGuardedIndex creates a circuit breaker around index
func NewGuardedIndex(index recommendation.VectorIndex, settings Settings, log *logger.Logger) *GuardedIndex {
	l := log.WithComponent("vector-index-breaker")
	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]recommendation.Candidate](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.InfoFields("Circuit breaker state change", logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: isSuccessful,
	})

	return &GuardedIndex{
		index:  index,
		cb:     cb,
		logger: l,
	}
}

var _ recommendation.VectorIndex = (*GuardedIndex)(nil)

func (g *GuardedIndex) NearestNeighbors(ctx context.Context, q recommendation.NeighborQuery) ([]recommendation.Candidate, error) {
	return g.execute(func() ([]recommendation.Candidate, error) {
		return g.index.NearestNeighbors(ctx, q)
	})
}

func (g *GuardedIndex) SimilarTo(ctx context.Context, movieID int64, limit int) ([]recommendation.Candidate, error) {
	return g.execute(func() ([]recommendation.Candidate, error) {
		return g.index.SimilarTo(ctx, movieID, limit)
	})
}

// State reports the breaker state: closed, half-open or open
func (g *GuardedIndex) State() string {
	return g.cb.State().String()
}

func (g *GuardedIndex) execute(fn func() ([]recommendation.Candidate, error)) ([]recommendation.Candidate, error) {
	result, err := g.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.logger.Warn("Vector index call rejected: " + err.Error())
			return nil, fmt.Errorf("%w: %v", recommendation.ErrIndexUnavailable, err)
		}
		return nil, err
	}
	return result, nil
}

// isSuccessful keeps caller cancellations and lookups of movies without embeddings from
// counting against the index
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, recommendation.ErrEmbeddingNotFound)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
