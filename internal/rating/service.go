package rating

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repo     Repository
	movies   MovieChecker
	listener ChangeListener
	now      func() time.Time
	logger   *logger.Logger
}

// NewService creates a new rating service. listener may be nil.
func NewService(repo Repository, movies MovieChecker, listener ChangeListener, log *logger.Logger) Service {
	return &service{
		repo:     repo,
		movies:   movies,
		listener: listener,
		now:      time.Now,
		logger:   log.WithComponent("rating-service"),
	}
}

// normalizeRating applies the status default and checks the pair is consistent
func normalizeRating(rating *int, status string) (*int, string, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if rating == nil && status == "" {
		return nil, "", fmt.Errorf("%w: rating or status is required", ErrInvalidRating)
	}
	if status == "" {
		status = StatusWatched
	}

	switch status {
	case StatusWatched:
		if rating == nil || *rating < MinRating || *rating > MaxRating {
			return nil, "", fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidRating, MinRating, MaxRating)
		}
		return rating, status, nil
	case StatusUnwatched:
		return nil, status, nil
	default:
		return nil, "", fmt.Errorf("%w: status must be watched or unwatched, got '%s'", ErrInvalidRating, status)
	}
}

func (s *service) Rate(ctx context.Context, userID uuid.UUID, movieID int64, rating *int, status string) (*Rating, error) {
	movieKey := strconv.FormatInt(movieID, 10)

	value, status, err := normalizeRating(rating, status)
	if err != nil {
		return nil, err
	}

	exists, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		s.logger.Error("Failed to check movie " + movieKey + ": " + err.Error())
		return nil, err
	}
	if !exists {
		return nil, ErrMovieNotFound
	}

	now := s.now()
	r := &Rating{
		UserID:    userID,
		MovieID:   movieID,
		Rating:    value,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, r); err != nil {
		s.logger.Error("Failed to save rating for movie " + movieKey + " by user " + userID.String() + ": " + err.Error())
		return nil, err
	}

	s.logger.Info("Rating saved for movie " + movieKey + " by user " + userID.String() + " as " + status)
	s.notify(ctx, userID)
	return r, nil
}

func (s *service) GetRating(ctx context.Context, userID uuid.UUID, movieID int64) (*Rating, error) {
	return s.repo.FindByUserAndMovie(ctx, userID, movieID)
}

func (s *service) DeleteRating(ctx context.Context, userID uuid.UUID, movieID int64) error {
	movieKey := strconv.FormatInt(movieID, 10)

	if _, err := s.repo.FindByUserAndMovie(ctx, userID, movieID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, movieID); err != nil {
		s.logger.Error("Failed to delete rating for movie " + movieKey + " by user " + userID.String() + ": " + err.Error())
		return err
	}

	s.logger.Info("Rating deleted for movie " + movieKey + " by user " + userID.String())
	s.notify(ctx, userID)
	return nil
}

func (s *service) ListRatings(ctx context.Context, userID uuid.UUID, page, limit int) ([]Rating, int64, error) {
	if page < 1 || limit < 1 {
		return nil, 0, errors.New("page and limit must be positive")
	}
	return s.repo.ListByUser(ctx, userID, limit, (page-1)*limit)
}

// notify runs the change listener. The write already succeeded, so a listener failure is
// logged and not returned.
func (s *service) notify(ctx context.Context, userID uuid.UUID) {
	if s.listener == nil {
		return
	}
	if err := s.listener.RatingChanged(ctx, userID); err != nil {
		s.logger.Error("Failed to refresh profile for user " + userID.String() + ": " + err.Error())
	}
}
