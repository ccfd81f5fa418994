package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	ratingPkg "github.com/dustin/movie-recommender/internal/rating"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormRatingRepository implements the rating.Repository interface with GORM
type gormRatingRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewGORMRatingRepository creates a new GORM-based rating repository
func NewGORMRatingRepository(db *gorm.DB, log *logger.Logger) ratingPkg.Repository {
	return &gormRatingRepository{
		db:     db,
		logger: log.WithComponent("gorm-rating-repository"),
	}
}

func (r *gormRatingRepository) Upsert(ctx context.Context, rating *ratingPkg.Rating) error {
	// One row per (user, movie); a second write replaces the verdict and bumps updated_at
	err := r.db.WithContext(ctx).
		Omit("Movie").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "status", "updated_at"}),
		}).
		Create(rating).Error
	if err != nil {
		r.logger.Error("Failed to upsert rating for movie " + strconv.FormatInt(rating.MovieID, 10) + " by user " + rating.UserID.String() + ": " + err.Error())
		return fmt.Errorf("failed to save rating: %w", err)
	}

	return nil
}

func (r *gormRatingRepository) FindByUserAndMovie(ctx context.Context, userID uuid.UUID, movieID int64) (*ratingPkg.Rating, error) {
	var rating ratingPkg.Rating

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ratingPkg.ErrRatingNotFound
		}

		r.logger.Error("Database error finding rating for movie " + strconv.FormatInt(movieID, 10) + ": " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &rating, nil
}

func (r *gormRatingRepository) Delete(ctx context.Context, userID uuid.UUID, movieID int64) error {
	result := r.db.WithContext(ctx).Delete(&ratingPkg.Rating{}, "user_id = ? AND movie_id = ?", userID, movieID)
	if err := result.Error; err != nil {
		r.logger.Error("Failed to delete rating for movie " + strconv.FormatInt(movieID, 10) + ": " + err.Error())
		return fmt.Errorf("failed to delete rating: %w", err)
	}

	if result.RowsAffected == 0 {
		return ratingPkg.ErrRatingNotFound
	}

	return nil
}

func (r *gormRatingRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ratingPkg.Rating, int64, error) {
	var (
		ratings []ratingPkg.Rating
		total   int64
	)

	db := r.db.WithContext(ctx).Model(&ratingPkg.Rating{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := db.Count(&total).Error; err != nil {
		r.logger.Error("Database error counting ratings for user " + userID.String() + ": " + err.Error())
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	err := db.Preload("Movie").
		Order("updated_at DESC").
		Order("movie_id").
		Offset(offset).
		Limit(limit).
		Find(&ratings).Error
	if err != nil {
		r.logger.Error("Database error listing ratings for user " + userID.String() + ": " + err.Error())
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	return ratings, total, nil
}
