package recommendation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/movie-recommender/config"
	"github.com/dustin/movie-recommender/internal/movie"
	"github.com/dustin/movie-recommender/internal/profile"
	"github.com/google/uuid"
)

var (
	// ErrIndexUnavailable means the vector index timed out or is failing; the request may be retried
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingNotFound is returned when a movie has no embedding to search from
	ErrEmbeddingNotFound = errors.New("movie has no embedding")

	// ErrNoMoreMovies is returned when every movie has been rated
	ErrNoMoreMovies = errors.New("no more unrated movies")
)

// Source tells which path produced a feed item
type Source string

const (
	SourceProfile    Source = "profile"
	SourcePopularity Source = "popularity"
)

// Candidate is a movie returned by the vector index with its distance to the query.
// DislikeDistance is set only when a dislike embedding was part of the query.
type Candidate struct {
	movie.Movie
	Distance        float64
	DislikeDistance *float64
}

// RankedCandidate is a candidate after reranking. Scores are only meaningful when Reranked is true.
type RankedCandidate struct {
	Candidate
	LikeScore    float64
	DislikeScore *float64
	FinalScore   float64
	Similarity   float64
	Reranked     bool
}

// FeedItem is one entry of a user's feed
type FeedItem struct {
	Movie      movie.Movie
	Distance   *float64
	Similarity *float64
	Score      *float64
	Source     Source
}

// ExcludeFilter removes movies the user already handled: anything rated, except movies
// marked unwatched before UnwatchedBefore
type ExcludeFilter struct {
	UserID          uuid.UUID
	UnwatchedBefore time.Time
}

// NeighborQuery asks the vector index for the nearest unhandled movies to Embedding.
// A non-nil DislikeEmbedding adds the distance to it on the same candidates.
type NeighborQuery struct {
	Embedding        []float32
	DislikeEmbedding []float32
	Exclude          ExcludeFilter
	Limit            int
	Offset           int
}

// VectorIndex is the nearest-neighbor lookup over movie embeddings. Results are ordered by
// ascending distance.
type VectorIndex interface {
	NearestNeighbors(ctx context.Context, q NeighborQuery) ([]Candidate, error)
	SimilarTo(ctx context.Context, movieID int64, limit int) ([]Candidate, error)
}

// MovieStore reads movie content outside of vector search
type MovieStore interface {
	FindByID(ctx context.Context, id int64) (*movie.Movie, error)
	PopularUnrated(ctx context.Context, exclude ExcludeFilter, limit, offset int) ([]movie.Movie, error)
}

// ProfileBuilder assembles a user's taste; nil means the user has no profile yet
type ProfileBuilder interface {
	Build(ctx context.Context, userID uuid.UUID) (*profile.UserProfile, error)
}

// RankRequest asks for one window of a user's feed
type RankRequest struct {
	UserID  uuid.UUID
	Profile *profile.UserProfile
	Offset  int
	Limit   int
}

// Engine produces ranked feed windows. A request without a profile is served by the
// popularity path.
type Engine interface {
	Rank(ctx context.Context, req RankRequest) ([]FeedItem, error)
	Name() string
}

// Service defines the interface for recommendation business logic
type Service interface {
	GetRecommendationsPage(ctx context.Context, userID uuid.UUID, pageSize int, cursor string) (*Page, error)
	Invalidate(userID uuid.UUID)
	SimilarMovies(ctx context.Context, movieID int64, k int) ([]SimilarMovie, error)
	NextMovie(ctx context.Context, userID uuid.UUID) (*FeedItem, error)
	RatingQueue(ctx context.Context, userID uuid.UUID, limit, offset int) ([]movie.Movie, error)
}

// Page is one page of a user's feed
type Page struct {
	Items []FeedItem
	Meta  PageMeta
}

// PageMeta carries the pagination state of a feed page
type PageMeta struct {
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
	FeedID     string `json:"feed_id"`
}

// SimilarMovie is a neighbor of an anchor movie. Score is nil when reranking is disabled.
type SimilarMovie struct {
	Movie    movie.Movie
	Distance float64
	Score    *float64
}

// Settings tunes ranking and similarity lookups
type Settings struct {
	DislikeWeight     float64
	UnwatchedCooldown time.Duration
	IndexTimeout      time.Duration
	CandidatesK       int
	TopN              int
	RerankEnabled     bool
}

// NewSettings parses the recommendation and similarity config sections
func NewSettings(rec *config.RecommendationConfig, sim *config.SimilarityConfig) (Settings, error) {
	s := Settings{
		DislikeWeight:     0.5,
		UnwatchedCooldown: 90 * 24 * time.Hour,
		IndexTimeout:      5 * time.Second,
		CandidatesK:       200,
		TopN:              20,
		RerankEnabled:     true,
	}

	if rec != nil {
		if rec.DislikeWeight != "" {
			w, err := strconv.ParseFloat(rec.DislikeWeight, 64)
			if err != nil || w < 0 {
				return s, fmt.Errorf("invalid dislike weight '%s'", rec.DislikeWeight)
			}
			s.DislikeWeight = w
		}
		if rec.UnwatchedCooldown != "" {
			d, err := time.ParseDuration(rec.UnwatchedCooldown)
			if err != nil || d < 0 {
				return s, fmt.Errorf("invalid unwatched cooldown '%s'", rec.UnwatchedCooldown)
			}
			s.UnwatchedCooldown = d
		}
		if rec.IndexTimeout != "" {
			d, err := time.ParseDuration(rec.IndexTimeout)
			if err != nil || d <= 0 {
				return s, fmt.Errorf("invalid vector index timeout '%s'", rec.IndexTimeout)
			}
			s.IndexTimeout = d
		}
	}

	if sim != nil {
		if sim.CandidatesK != "" {
			n, err := strconv.Atoi(sim.CandidatesK)
			if err != nil || n < 1 {
				return s, fmt.Errorf("invalid similarity candidates k '%s'", sim.CandidatesK)
			}
			s.CandidatesK = n
		}
		if sim.TopN != "" {
			n, err := strconv.Atoi(sim.TopN)
			if err != nil || n < 1 || n > maxSimilar {
				return s, fmt.Errorf("invalid similarity top n '%s'", sim.TopN)
			}
			s.TopN = n
		}
		if sim.RerankEnabled != "" {
			enabled, err := strconv.ParseBool(sim.RerankEnabled)
			if err != nil {
				return s, fmt.Errorf("invalid similarity rerank flag '%s': %v", sim.RerankEnabled, err)
			}
			s.RerankEnabled = enabled
		}
	}

	return s, nil
}

// FeedItemResponse represents a feed entry in API responses
type FeedItemResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	ReleaseDate *time.Time `json:"release_date"`
	Genres      string     `json:"genres"`
	Distance    *float64   `json:"distance"`
	Similarity  *float64   `json:"similarity"`
	Score       *float64   `json:"score"`
	Source      Source     `json:"source"`
	PosterURL   *string    `json:"poster_url"`
	BackdropURL *string    `json:"backdrop_url"`
}

// FeedResponse is the paginated feed envelope
type FeedResponse struct {
	Data []FeedItemResponse `json:"data"`
	Meta PageMeta           `json:"meta"`
}

// SimilarMovieResponse represents a similar movie in API responses
type SimilarMovieResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	ReleaseDate *time.Time `json:"release_date"`
	Genres      string     `json:"genres"`
	Distance    float64    `json:"distance"`
	Score       *float64   `json:"score"`
	PosterURL   *string    `json:"poster_url"`
	BackdropURL *string    `json:"backdrop_url"`
}

// QueueItemResponse represents a movie waiting to be rated
type QueueItemResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	ReleaseDate *time.Time `json:"release_date"`
	Genres      string     `json:"genres"`
	PosterURL   *string    `json:"poster_url"`
	BackdropURL *string    `json:"backdrop_url"`
}

// ToResponse converts FeedItem to FeedItemResponse
func (f *FeedItem) ToResponse(images *movie.ImageURLs) FeedItemResponse {
	return FeedItemResponse{
		ID:          f.Movie.ID,
		Title:       f.Movie.Title,
		ReleaseDate: f.Movie.ReleaseDate,
		Genres:      f.Movie.Genres,
		Distance:    f.Distance,
		Similarity:  f.Similarity,
		Score:       f.Score,
		Source:      f.Source,
		PosterURL:   images.Poster(f.Movie.PosterPath),
		BackdropURL: images.Backdrop(f.Movie.BackdropPath),
	}
}

// ToResponse converts SimilarMovie to SimilarMovieResponse
func (s *SimilarMovie) ToResponse(images *movie.ImageURLs) SimilarMovieResponse {
	return SimilarMovieResponse{
		ID:          s.Movie.ID,
		Title:       s.Movie.Title,
		ReleaseDate: s.Movie.ReleaseDate,
		Genres:      s.Movie.Genres,
		Distance:    s.Distance,
		Score:       s.Score,
		PosterURL:   images.Poster(s.Movie.PosterPath),
		BackdropURL: images.Backdrop(s.Movie.BackdropPath),
	}
}

// BuildFeedResponse maps a page to its response envelope
func BuildFeedResponse(page *Page, images *movie.ImageURLs) *FeedResponse {
	data := make([]FeedItemResponse, 0, len(page.Items))
	for i := range page.Items {
		data = append(data, page.Items[i].ToResponse(images))
	}
	return &FeedResponse{Data: data, Meta: page.Meta}
}

// BuildQueueResponse maps queued movies to their responses
func BuildQueueResponse(movies []movie.Movie, images *movie.ImageURLs) []QueueItemResponse {
	out := make([]QueueItemResponse, 0, len(movies))
	for _, m := range movies {
		out = append(out, QueueItemResponse{
			ID:          m.ID,
			Title:       m.Title,
			ReleaseDate: m.ReleaseDate,
			Genres:      m.Genres,
			PosterURL:   images.Poster(m.PosterPath),
			BackdropURL: images.Backdrop(m.BackdropPath),
		})
	}
	return out
}
