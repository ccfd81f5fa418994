package repository

import (
	"context"
	"fmt"
	"strconv"

	moviePkg "github.com/dustin/movie-recommender/internal/movie"
	ratingPkg "github.com/dustin/movie-recommender/internal/rating"
	recommendationPkg "github.com/dustin/movie-recommender/internal/recommendation"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// GORMVectorIndex runs nearest-neighbor queries with the pgvector cosine distance operator
type GORMVectorIndex struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewGORMVectorIndex creates a pgvector-backed vector index
func NewGORMVectorIndex(db *gorm.DB, log *logger.Logger) *GORMVectorIndex {
	return &GORMVectorIndex{
		db:     db,
		logger: log.WithComponent("gorm-vector-index"),
	}
}

var _ recommendationPkg.VectorIndex = (*GORMVectorIndex)(nil)

type candidateScanRow struct {
	moviePkg.Movie
	Distance        float64
	DislikeDistance *float64
}

func (r candidateScanRow) candidate() recommendationPkg.Candidate {
	return recommendationPkg.Candidate{
		Movie:           r.Movie,
		Distance:        r.Distance,
		DislikeDistance: r.DislikeDistance,
	}
}

// neighborQuery builds the nearest-neighbor statement and its arguments. The dislike
// distance column is NULL unless a dislike embedding is given.
func neighborQuery(q recommendationPkg.NeighborQuery) (string, []any) {
	dislikeColumn := "NULL::float8"
	args := []any{pgvector.NewVector(q.Embedding)}
	if q.DislikeEmbedding != nil {
		dislikeColumn = "e.embedding <=> ?::vector"
		args = append(args, pgvector.NewVector(q.DislikeEmbedding))
	}
	args = append(args, q.Exclude.UserID, ratingPkg.StatusUnwatched, q.Exclude.UnwatchedBefore, q.Limit, q.Offset)

	sql := `
		SELECT movies.*, e.embedding <=> ?::vector AS distance, ` + dislikeColumn + ` AS dislike_distance
		FROM movies
		JOIN movie_embeddings e ON e.movie_id = movies.id
		WHERE ` + excludeHandled + `
		ORDER BY distance, movies.id
		LIMIT ? OFFSET ?`
	return sql, args
}

func (r *GORMVectorIndex) NearestNeighbors(ctx context.Context, q recommendationPkg.NeighborQuery) ([]recommendationPkg.Candidate, error) {
	var rows []candidateScanRow

	sql, args := neighborQuery(q)
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		r.logger.Error("Vector search error for user " + q.Exclude.UserID.String() + ": " + err.Error())
		return nil, fmt.Errorf("vector similarity search error: %w", err)
	}

	out := make([]recommendationPkg.Candidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.candidate())
	}
	return out, nil
}

func (r *GORMVectorIndex) SimilarTo(ctx context.Context, movieID int64, limit int) ([]recommendationPkg.Candidate, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&MovieEmbedding{}).Where("movie_id = ?", movieID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return nil, recommendationPkg.ErrEmbeddingNotFound
	}

	var rows []candidateScanRow
	err := r.db.WithContext(ctx).Raw(`
		WITH anchor AS (
			SELECT embedding FROM movie_embeddings WHERE movie_id = ?
		)
		SELECT movies.*, e.embedding <=> anchor.embedding AS distance
		FROM anchor, movie_embeddings e
		JOIN movies ON movies.id = e.movie_id
		WHERE e.movie_id <> ?
		ORDER BY distance, movies.id
		LIMIT ?
	`, movieID, movieID, limit).Scan(&rows).Error
	if err != nil {
		r.logger.Error("Similar movie search error for movie " + strconv.FormatInt(movieID, 10) + ": " + err.Error())
		return nil, fmt.Errorf("vector similarity search error: %w", err)
	}

	out := make([]recommendationPkg.Candidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.candidate())
	}
	return out, nil
}
