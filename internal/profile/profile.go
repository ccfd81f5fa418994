package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/movie-recommender/config"
	"github.com/dustin/movie-recommender/internal/rerank"
	"github.com/google/uuid"
)

var (
	// ErrMovieNotFound is returned when a match is requested for an unknown movie
	ErrMovieNotFound = errors.New("movie not found")
)

// Rating bands used to split a user's history into liked and disliked movies
const (
	minLikedRating    = 3
	maxLikedRating    = 5
	minDislikedRating = 1
	maxDislikedRating = 2
)

// Profile is the persisted positive taste vector of a user
type Profile struct {
	UserID     uuid.UUID
	Embedding  []float32
	NumRatings int
	UpdatedAt  time.Time
}

// UserProfile is everything the reranker needs about a user's taste, assembled per request.
// It is never persisted; a nil *UserProfile means the user has no stored profile yet.
type UserProfile struct {
	UserID            uuid.UUID
	PositiveEmbedding []float32
	NegativeEmbedding []float32
	PositiveContext   *rerank.ScoringContext
	NegativeContext   *rerank.ScoringContext
	DislikeCount      int
	DislikeActive     bool
}

// RatedItem is a watched movie's content together with the user's rating for it
type RatedItem struct {
	rerank.Content
	Rating *int
}

// RatingCounts summarizes a user's rating history
type RatingCounts struct {
	Watched int
	Liked   int
}

// RatingSource reads the parts of a user's rating history that profiles are built from.
// Only watched ratings are returned.
type RatingSource interface {
	FindEmbeddings(ctx context.Context, userID uuid.UUID, minRating, maxRating int) ([]EmbeddingRow, error)
	FindScoringRows(ctx context.Context, userID uuid.UUID, minRating, maxRating, limit int) ([]RatedItem, error)
	CountRatings(ctx context.Context, userID uuid.UUID) (RatingCounts, error)
}

// Store persists profiles. Find returns nil, nil when the user has none.
type Store interface {
	Find(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Save(ctx context.Context, profile *Profile) error
	Delete(ctx context.Context, userID uuid.UUID) error
	Distance(ctx context.Context, userID uuid.UUID, movieID int64) (*float64, error)
}

// MovieChecker reports whether a movie exists
type MovieChecker interface {
	Exists(ctx context.Context, movieID int64) (bool, error)
}

// Service defines profile building and reporting
type Service interface {
	Recompute(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Build(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	Stats(ctx context.Context, userID uuid.UUID) (*Stats, error)
	Match(ctx context.Context, userID uuid.UUID, movieID int64) (*float64, error)
}

// Stats describes a user's profile for the API
type Stats struct {
	UserID        uuid.UUID  `json:"user_id"`
	NumRatings    int        `json:"num_ratings"`
	NumLiked      int        `json:"num_liked"`
	EmbeddingNorm *float64   `json:"embedding_norm"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// MatchResponse is the 0-100 affinity between a user and a movie
type MatchResponse struct {
	MovieID int64    `json:"movie_id"`
	Score   *float64 `json:"score"`
}

// Settings tunes profile building
type Settings struct {
	DislikeMinCount     int
	NeutralRatingWeight float64
	MaxScoringGenres    int
	MaxScoringKeywords  int
	ScoringContextLimit int
}

// NewSettings parses the recommendation config section, applying defaults for empty values
func NewSettings(cfg *config.RecommendationConfig) (Settings, error) {
	s := Settings{
		DislikeMinCount:     3,
		NeutralRatingWeight: 0.2,
		MaxScoringGenres:    5,
		MaxScoringKeywords:  20,
		ScoringContextLimit: 200,
	}
	if cfg == nil {
		return s, nil
	}

	var err error
	if s.DislikeMinCount, err = parseCount(cfg.DislikeMinCount, s.DislikeMinCount); err != nil {
		return s, fmt.Errorf("invalid dislike min count '%s': %v", cfg.DislikeMinCount, err)
	}
	if s.MaxScoringGenres, err = parseCount(cfg.MaxScoringGenres, s.MaxScoringGenres); err != nil {
		return s, fmt.Errorf("invalid max scoring genres '%s': %v", cfg.MaxScoringGenres, err)
	}
	if s.MaxScoringKeywords, err = parseCount(cfg.MaxScoringKeywords, s.MaxScoringKeywords); err != nil {
		return s, fmt.Errorf("invalid max scoring keywords '%s': %v", cfg.MaxScoringKeywords, err)
	}
	if s.ScoringContextLimit, err = parseCount(cfg.ScoringContextLimit, s.ScoringContextLimit); err != nil {
		return s, fmt.Errorf("invalid scoring context limit '%s': %v", cfg.ScoringContextLimit, err)
	}

	if cfg.NeutralRatingWeight != "" {
		w, err := strconv.ParseFloat(cfg.NeutralRatingWeight, 64)
		if err != nil {
			return s, fmt.Errorf("invalid neutral rating weight '%s': %v", cfg.NeutralRatingWeight, err)
		}
		if w < 0 || w > 1 {
			return s, fmt.Errorf("invalid neutral rating weight '%s': must be between 0 and 1", cfg.NeutralRatingWeight)
		}
		s.NeutralRatingWeight = w
	}

	return s, nil
}

func parseCount(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be at least 1, got %d", n)
	}
	return n, nil
}

// weightedRows pairs scoring rows with the weight their rating earns
func weightedRows(rows []RatedItem, weight WeightFunc) []rerank.WeightedContent {
	out := make([]rerank.WeightedContent, 0, len(rows))
	for _, row := range rows {
		out = append(out, rerank.WeightedContent{Content: row.Content, Weight: weight(row.Rating)})
	}
	return out
}
