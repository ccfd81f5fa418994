package profile

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dustin/movie-recommender/internal/rerank"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// service implements the Service interface
type service struct {
	ratings  RatingSource
	store    Store
	movies   MovieChecker
	settings Settings
	positive WeightFunc
	now      func() time.Time
	logger   *logger.Logger
}

// NewService creates a new profile service
func NewService(ratings RatingSource, store Store, movies MovieChecker, settings Settings, log *logger.Logger) Service {
	return &service{
		ratings:  ratings,
		store:    store,
		movies:   movies,
		settings: settings,
		positive: PositiveWeight(settings.NeutralRatingWeight),
		now:      time.Now,
		logger:   log.WithComponent("profile-service"),
	}
}

// Recompute rebuilds the stored profile from scratch. When no liked movie contributes,
// the stored profile is removed and nil is returned.
func (s *service) Recompute(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	rows, err := s.ratings.FindEmbeddings(ctx, userID, minLikedRating, maxLikedRating)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile embeddings: %w", err)
	}

	embedding := BuildWeightedEmbedding(rows, s.positive)
	if embedding == nil {
		if err := s.store.Delete(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to delete profile: %w", err)
		}
		s.logger.Info("Profile removed for user " + userID.String() + ": no qualifying ratings")
		return nil, nil
	}

	counts, err := s.ratings.CountRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ratings: %w", err)
	}

	profile := &Profile{
		UserID:     userID,
		Embedding:  embedding,
		NumRatings: counts.Watched,
		UpdatedAt:  s.now(),
	}
	if err := s.store.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.InfoFields("Profile recomputed", logger.Fields{
		"user_id":      userID.String(),
		"num_ratings":  counts.Watched,
		"contributing": countWeighted(rows, s.positive),
	})
	return profile, nil
}

// Build assembles the request-time view of a user's taste. Returns nil, nil when
// the user has no stored profile.
func (s *service) Build(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	var (
		stored      *Profile
		dislikeRows []EmbeddingRow
		likedItems  []RatedItem
		dislikes    []RatedItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = s.store.Find(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		dislikeRows, err = s.ratings.FindEmbeddings(gctx, userID, minDislikedRating, maxDislikedRating)
		return err
	})
	g.Go(func() error {
		var err error
		likedItems, err = s.ratings.FindScoringRows(gctx, userID, minLikedRating, maxLikedRating, s.settings.ScoringContextLimit)
		return err
	})
	g.Go(func() error {
		var err error
		dislikes, err = s.ratings.FindScoringRows(gctx, userID, minDislikedRating, maxDislikedRating, s.settings.ScoringContextLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}

	if stored == nil || len(stored.Embedding) == 0 {
		return nil, nil
	}

	up := &UserProfile{
		UserID:            userID,
		PositiveEmbedding: stored.Embedding,
		NegativeEmbedding: BuildWeightedEmbedding(dislikeRows, NegativeWeight),
		PositiveContext:   s.aggregate(likedItems, s.positive),
		NegativeContext:   s.aggregate(dislikes, NegativeWeight),
		DislikeCount:      min(len(dislikeRows), len(dislikes)),
	}
	// A dislike vector of another dimension cannot be compared with candidates
	if len(up.NegativeEmbedding) != len(up.PositiveEmbedding) {
		up.NegativeEmbedding = nil
	}
	up.DislikeActive = up.NegativeEmbedding != nil &&
		up.NegativeContext != nil &&
		up.DislikeCount >= s.settings.DislikeMinCount

	return up, nil
}

func (s *service) aggregate(rows []RatedItem, weight WeightFunc) *rerank.ScoringContext {
	return rerank.BuildWeightedAggregate(weightedRows(rows, weight), s.settings.MaxScoringGenres, s.settings.MaxScoringKeywords)
}

func (s *service) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	counts, err := s.ratings.CountRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ratings: %w", err)
	}

	stats := &Stats{
		UserID:     userID,
		NumRatings: counts.Watched,
		NumLiked:   counts.Liked,
	}

	stored, err := s.store.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if stored != nil {
		norm := Norm(stored.Embedding)
		updatedAt := stored.UpdatedAt
		stats.NumRatings = stored.NumRatings
		stats.EmbeddingNorm = &norm
		stats.UpdatedAt = &updatedAt
	}

	return stats, nil
}

// Match scores a movie for a user on a 0-100 scale from the profile distance.
// Returns nil when the user has no profile or the movie has no embedding.
func (s *service) Match(ctx context.Context, userID uuid.UUID, movieID int64) (*float64, error) {
	exists, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to check movie: %w", err)
	}
	if !exists {
		return nil, ErrMovieNotFound
	}

	distance, err := s.store.Distance(ctx, userID, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute distance: %w", err)
	}
	if distance == nil {
		return nil, nil
	}

	score := MatchScore(*distance)
	return &score, nil
}

// MatchScore converts a cosine distance to a percentage rounded to two decimals
func MatchScore(distance float64) float64 {
	score := math.Max(0, math.Min(100, (1-distance)*100))
	return math.Round(score*100) / 100
}
