package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	profilePkg "github.com/dustin/movie-recommender/internal/profile"
	ratingPkg "github.com/dustin/movie-recommender/internal/rating"
	"github.com/dustin/movie-recommender/internal/rerank"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProfileRepository stores user profiles and reads the rating history they are built from
type GORMProfileRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewGORMProfileRepository creates a new GORM-based profile repository. The result implements
// both profile.Store and profile.RatingSource.
func NewGORMProfileRepository(db *gorm.DB, log *logger.Logger) *GORMProfileRepository {
	return &GORMProfileRepository{
		db:     db,
		logger: log.WithComponent("gorm-profile-repository"),
	}
}

var (
	_ profilePkg.Store        = (*GORMProfileRepository)(nil)
	_ profilePkg.RatingSource = (*GORMProfileRepository)(nil)
)

func (r *GORMProfileRepository) Find(ctx context.Context, userID uuid.UUID) (*profilePkg.Profile, error) {
	var rec userProfileRecord

	err := r.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		r.logger.Error("Database error finding profile for user " + userID.String() + ": " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &profilePkg.Profile{
		UserID:     rec.UserID,
		Embedding:  rec.Embedding.Slice(),
		NumRatings: rec.NumRatings,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}

func (r *GORMProfileRepository) Save(ctx context.Context, profile *profilePkg.Profile) error {
	rec := userProfileRecord{
		UserID:     profile.UserID,
		Embedding:  pgvector.NewVector(profile.Embedding),
		NumRatings: profile.NumRatings,
		UpdatedAt:  profile.UpdatedAt,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"embedding", "num_ratings", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		r.logger.Error("Failed to save profile for user " + profile.UserID.String() + ": " + err.Error())
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

func (r *GORMProfileRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&userProfileRecord{}, "user_id = ?", userID).Error; err != nil {
		r.logger.Error("Failed to delete profile for user " + userID.String() + ": " + err.Error())
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// Distance is the cosine distance between the user's profile and a movie, or nil when
// either vector is missing. Requires pgvector.
func (r *GORMProfileRepository) Distance(ctx context.Context, userID uuid.UUID, movieID int64) (*float64, error) {
	var distances []float64

	err := r.db.WithContext(ctx).Raw(`
		SELECT p.embedding <=> e.embedding AS distance
		FROM user_profiles p
		JOIN movie_embeddings e ON e.movie_id = ?
		WHERE p.user_id = ?
	`, movieID, userID).Scan(&distances).Error
	if err != nil {
		r.logger.Error("Vector distance error for user " + userID.String() + ": " + err.Error())
		return nil, fmt.Errorf("vector distance error: %w", err)
	}

	if len(distances) == 0 {
		return nil, nil
	}
	return &distances[0], nil
}

type embeddingScanRow struct {
	MovieID   int64
	Rating    *int
	Embedding pgvector.Vector
}

func (r *GORMProfileRepository) FindEmbeddings(ctx context.Context, userID uuid.UUID, minRating, maxRating int) ([]profilePkg.EmbeddingRow, error) {
	var rows []embeddingScanRow

	err := r.db.WithContext(ctx).Raw(`
		SELECT r.movie_id, r.rating, e.embedding
		FROM user_movie_ratings r
		JOIN movie_embeddings e ON e.movie_id = r.movie_id
		WHERE r.user_id = ? AND r.status = ? AND r.rating BETWEEN ? AND ?
		ORDER BY r.updated_at DESC, r.movie_id
	`, userID, ratingPkg.StatusWatched, minRating, maxRating).Scan(&rows).Error
	if err != nil {
		r.logger.Error("Database error loading rated embeddings for user " + userID.String() + ": " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	out := make([]profilePkg.EmbeddingRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, profilePkg.EmbeddingRow{
			MovieID:   row.MovieID,
			Embedding: row.Embedding.Slice(),
			Rating:    row.Rating,
		})
	}
	return out, nil
}

type scoringScanRow struct {
	Genres           string
	Keywords         string
	Runtime          *int
	ReleaseDate      *time.Time
	OriginalLanguage string
	Rating           *int
}

func (r *GORMProfileRepository) FindScoringRows(ctx context.Context, userID uuid.UUID, minRating, maxRating, limit int) ([]profilePkg.RatedItem, error) {
	var rows []scoringScanRow

	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(m.genres, '') AS genres, COALESCE(m.keywords, '') AS keywords,
			m.runtime, m.release_date, COALESCE(m.original_language, '') AS original_language, r.rating
		FROM user_movie_ratings r
		JOIN movies m ON m.id = r.movie_id
		WHERE r.user_id = ? AND r.status = ? AND r.rating BETWEEN ? AND ?
		ORDER BY r.updated_at DESC, r.movie_id
		LIMIT ?
	`, userID, ratingPkg.StatusWatched, minRating, maxRating, limit).Scan(&rows).Error
	if err != nil {
		r.logger.Error("Database error loading scoring rows for user " + userID.String() + ": " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	out := make([]profilePkg.RatedItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, profilePkg.RatedItem{
			Content: rerank.Content{
				Genres:      row.Genres,
				Keywords:    row.Keywords,
				Runtime:     row.Runtime,
				ReleaseDate: row.ReleaseDate,
				Language:    row.OriginalLanguage,
			},
			Rating: row.Rating,
		})
	}
	return out, nil
}

func (r *GORMProfileRepository) CountRatings(ctx context.Context, userID uuid.UUID) (profilePkg.RatingCounts, error) {
	var counts profilePkg.RatingCounts

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN rating IS NOT NULL THEN 1 ELSE 0 END), 0) AS watched,
			COALESCE(SUM(CASE WHEN rating >= 4 THEN 1 ELSE 0 END), 0) AS liked
		FROM user_movie_ratings
		WHERE user_id = ? AND status = ?
	`, userID, ratingPkg.StatusWatched).Scan(&counts).Error
	if err != nil {
		r.logger.Error("Database error counting ratings for user " + userID.String() + ": " + err.Error())
		return counts, fmt.Errorf("database error: %w", err)
	}

	return counts, nil
}
