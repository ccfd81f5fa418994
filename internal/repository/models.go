package repository

import (
	"time"

	moviePkg "github.com/dustin/movie-recommender/internal/movie"
	ratingPkg "github.com/dustin/movie-recommender/internal/rating"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// MovieEmbedding is the content vector of a movie, written by the ingestion pipeline
type MovieEmbedding struct {
	MovieID   int64           `gorm:"primaryKey;autoIncrement:false"`
	Embedding pgvector.Vector `gorm:"type:vector;not null"`
}

// TableName returns the table name for GORM
func (MovieEmbedding) TableName() string {
	return "movie_embeddings"
}

// userProfileRecord is the stored positive profile of a user
type userProfileRecord struct {
	UserID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Embedding  pgvector.Vector `gorm:"type:vector;not null"`
	NumRatings int             `gorm:"not null;default:0"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (userProfileRecord) TableName() string {
	return "user_profiles"
}

// Models lists every table the repositories use, in migration order
func Models() []any {
	return []any{
		&moviePkg.Movie{},
		&MovieEmbedding{},
		&ratingPkg.Rating{},
		&userProfileRecord{},
	}
}

// excludeHandled keeps movies the user has not handled: no rating row at all, or an
// unwatched mark older than the cutoff
const excludeHandled = `NOT EXISTS (
	SELECT 1 FROM user_movie_ratings r
	WHERE r.movie_id = movies.id AND r.user_id = ?
	AND NOT (r.status = ? AND r.updated_at < ?)
)`
