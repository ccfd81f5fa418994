package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	moviePkg "github.com/dustin/movie-recommender/internal/movie"
	ratingPkg "github.com/dustin/movie-recommender/internal/rating"
	recommendationPkg "github.com/dustin/movie-recommender/internal/recommendation"
	"github.com/dustin/movie-recommender/pkg/logger"
	"gorm.io/gorm"
)

const popularityOrder = "vote_count DESC NULLS LAST, id"

// GORMMovieRepository reads movies for lookups and the popularity feed
type GORMMovieRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewGORMMovieRepository creates a new GORM-based movie repository
func NewGORMMovieRepository(db *gorm.DB, log *logger.Logger) *GORMMovieRepository {
	return &GORMMovieRepository{
		db:     db,
		logger: log.WithComponent("gorm-movie-repository"),
	}
}

var (
	_ moviePkg.Repository          = (*GORMMovieRepository)(nil)
	_ recommendationPkg.MovieStore = (*GORMMovieRepository)(nil)
)

func (r *GORMMovieRepository) FindByID(ctx context.Context, id int64) (*moviePkg.Movie, error) {
	var m moviePkg.Movie

	err := r.db.WithContext(ctx).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moviePkg.ErrMovieNotFound
		}

		r.logger.Error("Database error finding movie " + strconv.FormatInt(id, 10) + ": " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &m, nil
}

// FindByTitle tries an exact title, then an exact original title, then a case-insensitive
// substring match. Each step prefers the most voted movie.
func (r *GORMMovieRepository) FindByTitle(ctx context.Context, title string) (*moviePkg.Movie, error) {
	steps := []struct {
		query string
		arg   string
	}{
		{"title = ?", title},
		{"original_title = ?", title},
		{"LOWER(title) LIKE ? ESCAPE '\\'", "%" + escapeLike(title) + "%"},
	}

	for _, step := range steps {
		var movies []moviePkg.Movie
		err := r.db.WithContext(ctx).
			Where(step.query, step.arg).
			Order(popularityOrder).
			Limit(1).
			Find(&movies).Error
		if err != nil {
			r.logger.Error("Database error looking up movie title: " + err.Error())
			return nil, fmt.Errorf("database error: %w", err)
		}
		if len(movies) > 0 {
			return &movies[0], nil
		}
	}

	return nil, moviePkg.ErrMovieNotFound
}

func (r *GORMMovieRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&moviePkg.Movie{}).Where("id = ?", id).Count(&count).Error; err != nil {
		r.logger.Error("Database error checking movie " + strconv.FormatInt(id, 10) + ": " + err.Error())
		return false, fmt.Errorf("database error: %w", err)
	}

	return count > 0, nil
}

// PopularUnrated lists movies the user has not handled, most voted first
func (r *GORMMovieRepository) PopularUnrated(ctx context.Context, exclude recommendationPkg.ExcludeFilter, limit, offset int) ([]moviePkg.Movie, error) {
	var movies []moviePkg.Movie

	err := r.db.WithContext(ctx).
		Where(excludeHandled, exclude.UserID, ratingPkg.StatusUnwatched, exclude.UnwatchedBefore).
		Order(popularityOrder).
		Offset(offset).
		Limit(limit).
		Find(&movies).Error
	if err != nil {
		r.logger.Error("Database error listing popular movies for user " + exclude.UserID.String() + ": " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	return movies, nil
}

// escapeLike lowercases a LIKE pattern fragment and escapes its wildcards
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		switch c {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return strings.ToLower(string(out))
}
