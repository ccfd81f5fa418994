package adapter

import (
	"context"
	"fmt"

	"github.com/dustin/movie-recommender/internal/profile"
	"github.com/dustin/movie-recommender/internal/rating"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/google/uuid"
)

// ProfileRecomputer rebuilds a user's stored profile from their ratings
type ProfileRecomputer interface {
	Recompute(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
}

// FeedInvalidator drops every cached feed window of a user
type FeedInvalidator interface {
	Invalidate(userID uuid.UUID)
}

// RatingChangeNotifier adapts the profile and recommendation services to rating.ChangeListener
type RatingChangeNotifier struct {
	profiles ProfileRecomputer
	feeds    FeedInvalidator
	logger   *logger.Logger
}

// NewRatingChangeNotifier creates a new adapter
func NewRatingChangeNotifier(profiles ProfileRecomputer, feeds FeedInvalidator, log *logger.Logger) rating.ChangeListener {
	return &RatingChangeNotifier{
		profiles: profiles,
		feeds:    feeds,
		logger:   log.WithComponent("rating-notifier"),
	}
}

// RatingChanged recomputes the profile, then invalidates the feed even when the recompute
// failed. Windows cached after this returns are ranked against the new profile.
func (n *RatingChangeNotifier) RatingChanged(ctx context.Context, userID uuid.UUID) error {
	_, err := n.profiles.Recompute(ctx, userID)

	n.feeds.Invalidate(userID)

	if err != nil {
		return fmt.Errorf("recompute profile: %w", err)
	}
	n.logger.Debug("Refreshed profile and feed for user " + userID.String())
	return nil
}
