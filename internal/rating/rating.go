package rating

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/movie-recommender/internal/movie"
	"github.com/google/uuid"
)

const (
	StatusWatched   = "watched"
	StatusUnwatched = "unwatched"

	MinRating = 1
	MaxRating = 5
)

var (
	ErrInvalidRating  = errors.New("invalid rating")
	ErrMovieNotFound  = errors.New("movie not found")
	ErrRatingNotFound = errors.New("rating not found")
)

// Rating is a user's verdict on a movie. Unwatched rows carry no rating and only hide the
// movie from the feed for a cooldown period.
type Rating struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey;not null;index:idx_user_ratings"`
	MovieID   int64     `json:"movie_id" gorm:"primaryKey;autoIncrement:false;not null;index:idx_movie_ratings"`
	Rating    *int      `json:"rating" gorm:"check:rating IS NULL OR (rating >= 1 AND rating <= 5)"`
	Status    string    `json:"status" gorm:"size:16;not null;default:watched"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime;index:idx_user_ratings"`

	Movie *movie.Movie `json:"movie,omitempty" gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Rating) TableName() string {
	return "user_movie_ratings"
}

// IsValid checks the rating against its status
func (r *Rating) IsValid() bool {
	switch r.Status {
	case StatusWatched:
		return r.Rating != nil && *r.Rating >= MinRating && *r.Rating <= MaxRating
	case StatusUnwatched:
		return r.Rating == nil
	default:
		return false
	}
}

// Repository defines the interface for rating data access
type Repository interface {
	Upsert(ctx context.Context, rating *Rating) error
	FindByUserAndMovie(ctx context.Context, userID uuid.UUID, movieID int64) (*Rating, error)
	Delete(ctx context.Context, userID uuid.UUID, movieID int64) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Rating, int64, error)
}

// Service defines the interface for rating business logic
type Service interface {
	Rate(ctx context.Context, userID uuid.UUID, movieID int64, rating *int, status string) (*Rating, error)
	GetRating(ctx context.Context, userID uuid.UUID, movieID int64) (*Rating, error)
	DeleteRating(ctx context.Context, userID uuid.UUID, movieID int64) error
	ListRatings(ctx context.Context, userID uuid.UUID, page, limit int) ([]Rating, int64, error)
}

// MovieChecker confirms a movie exists before it can be rated
type MovieChecker interface {
	Exists(ctx context.Context, movieID int64) (bool, error)
}

// ChangeListener is told synchronously after every rating write
type ChangeListener interface {
	RatingChanged(ctx context.Context, userID uuid.UUID) error
}

// RateMovieRequest represents rating creation/update request. At least one field is required.
type RateMovieRequest struct {
	Rating *int   `json:"rating"`
	Status string `json:"status"`
}

// RatingResponse represents rating in API responses
type RatingResponse struct {
	MovieID   int64     `json:"movie_id"`
	Title     string    `json:"title,omitempty"`
	Rating    *int      `json:"rating"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse converts Rating to RatingResponse
func (r *Rating) ToResponse() *RatingResponse {
	resp := &RatingResponse{
		MovieID:   r.MovieID,
		Rating:    r.Rating,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Movie != nil {
		resp.Title = r.Movie.Title
	}
	return resp
}
