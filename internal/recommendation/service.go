package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/movie-recommender/internal/feedcache"
	"github.com/dustin/movie-recommender/internal/movie"
	"github.com/dustin/movie-recommender/internal/profile"
	"github.com/dustin/movie-recommender/internal/rerank"
	"github.com/dustin/movie-recommender/internal/utils"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/dustin/movie-recommender/pkg/metrics"
	"github.com/google/uuid"
)

const maxSimilar = 100

// service implements the Service interface
type service struct {
	engine   Engine
	profiles ProfileBuilder
	index    VectorIndex
	movies   MovieStore
	cache    *feedcache.Cache[FeedItem]
	settings Settings
	now      func() time.Time
	logger   *logger.Logger
}

// NewService creates a new recommendation service
func NewService(engine Engine, profiles ProfileBuilder, index VectorIndex, movies MovieStore, cache *feedcache.Cache[FeedItem], settings Settings, log *logger.Logger) Service {
	return &service{
		engine:   engine,
		profiles: profiles,
		index:    index,
		movies:   movies,
		cache:    cache,
		settings: settings,
		now:      time.Now,
		logger:   log.WithComponent("recommendation-service"),
	}
}

func (s *service) GetRecommendationsPage(ctx context.Context, userID uuid.UUID, pageSize int, cursor string) (*Page, error) {
	offset, err := utils.ParseCursor(cursor)
	if err != nil {
		return nil, err
	}

	// The profile is built at most once per request, on the first window that misses.
	var (
		prof   *profile.UserProfile
		loaded bool
	)
	fetch := func(ctx context.Context, offset, limit int) ([]FeedItem, error) {
		if !loaded {
			p, err := s.profiles.Build(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("failed to build profile: %w", err)
			}
			prof, loaded = p, true
		}

		source := SourcePopularity
		if prof != nil {
			source = SourceProfile
		}

		start := time.Now()
		items, err := s.engine.Rank(ctx, RankRequest{UserID: userID, Profile: prof, Offset: offset, Limit: limit})
		if err != nil {
			metrics.WindowFetchErrors.Inc()
			return nil, err
		}
		metrics.WindowFetchDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
		return items, nil
	}

	page, err := s.cache.GetPage(ctx, userID.String(), offset, pageSize, fetch)
	if err != nil {
		if !errors.Is(err, feedcache.ErrCursorOutOfRange) && !errors.Is(err, ErrIndexUnavailable) && ctx.Err() == nil {
			s.logger.ErrorFields("Failed to get recommendations page", err, logger.Fields{
				"user_id": userID.String(),
				"cursor":  offset,
				"engine":  s.engine.Name(),
			})
		}
		return nil, err
	}

	return &Page{
		Items: page.Items,
		Meta: PageMeta{
			NextCursor: utils.FormatCursor(page.NextCursor),
			HasMore:    page.HasMore,
			FeedID:     page.FeedID.String(),
		},
	}, nil
}

func (s *service) Invalidate(userID uuid.UUID) {
	s.cache.Invalidate(userID.String())
}

func (s *service) SimilarMovies(ctx context.Context, movieID int64, k int) ([]SimilarMovie, error) {
	topN := k
	if topN <= 0 {
		topN = s.settings.TopN
	}
	topN = min(topN, maxSimilar)

	anchor, err := s.movies.FindByID(ctx, movieID)
	if err != nil {
		return nil, err
	}

	ictx, cancel := context.WithTimeout(ctx, s.settings.IndexTimeout)
	defer cancel()

	candidates, err := s.index.SimilarTo(ictx, movieID, max(topN, s.settings.CandidatesK))
	if err != nil {
		return nil, indexError(ctx, err)
	}

	if !s.settings.RerankEnabled {
		candidates = candidates[:min(topN, len(candidates))]
		out := make([]SimilarMovie, 0, len(candidates))
		for _, c := range candidates {
			out = append(out, SimilarMovie{Movie: c.Movie, Distance: c.Distance})
		}
		return out, nil
	}

	return RerankSimilar(rerank.BuildSingle(anchor.Content()), candidates, topN), nil
}

// NextMovie returns the single best unrated movie: the nearest to the user's profile,
// or the most popular one when there is no profile
func (s *service) NextMovie(ctx context.Context, userID uuid.UUID) (*FeedItem, error) {
	prof, err := s.profiles.Build(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile: %w", err)
	}
	exclude := excludeFor(userID, s.now(), s.settings.UnwatchedCooldown)

	if prof != nil {
		ictx, cancel := context.WithTimeout(ctx, s.settings.IndexTimeout)
		defer cancel()

		candidates, err := s.index.NearestNeighbors(ictx, NeighborQuery{Embedding: prof.PositiveEmbedding, Exclude: exclude, Limit: 1})
		if err != nil {
			return nil, indexError(ctx, err)
		}
		if len(candidates) > 0 {
			ranked := RankedCandidate{Candidate: candidates[0], Similarity: 1 - candidates[0].Distance}
			item := ranked.feedItem()
			return &item, nil
		}
	}

	movies, err := s.movies.PopularUnrated(ctx, exclude, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, ErrNoMoreMovies
	}
	return &FeedItem{Movie: movies[0], Source: SourcePopularity}, nil
}

func (s *service) RatingQueue(ctx context.Context, userID uuid.UUID, limit, offset int) ([]movie.Movie, error) {
	if limit < 1 || offset < 0 {
		return nil, feedcache.ErrInvalidPage
	}
	return s.movies.PopularUnrated(ctx, excludeFor(userID, s.now(), s.settings.UnwatchedCooldown), limit, offset)
}
