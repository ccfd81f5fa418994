package movie

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dustin/movie-recommender/pkg/logger"
)

// service implements the Service interface
type service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService creates a new movie service
func NewService(repo Repository, log *logger.Logger) Service {
	return &service{
		repo:   repo,
		logger: log.WithComponent("movie-service"),
	}
}

func (s *service) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrMovieNotFound) {
			s.logger.Error("Failed to load movie " + strconv.FormatInt(id, 10) + ": " + err.Error())
		}
		return nil, err
	}
	return m, nil
}

func (s *service) Lookup(ctx context.Context, title string) (*Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrMovieNotFound
	}
	return s.repo.FindByTitle(ctx, title)
}

func (s *service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}
