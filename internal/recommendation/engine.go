package recommendation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/movie-recommender/internal/profile"
	"github.com/dustin/movie-recommender/internal/rerank"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/dustin/movie-recommender/pkg/metrics"
	"github.com/google/uuid"
)

const logSampleSize = 10

// RerankEngine ranks feed windows by vector distance to the user's taste, then reranks
// each window with content overlap against the liked and disliked contexts
type RerankEngine struct {
	index    VectorIndex
	movies   MovieStore
	settings Settings
	now      func() time.Time
	logger   *logger.Logger
}

// NewRerankEngine creates a new profile-driven recommendation engine
func NewRerankEngine(index VectorIndex, movies MovieStore, settings Settings, log *logger.Logger) *RerankEngine {
	return &RerankEngine{
		index:    index,
		movies:   movies,
		settings: settings,
		now:      time.Now,
		logger:   log.WithComponent("recommendation-engine"),
	}
}

func (e *RerankEngine) Name() string {
	return "rerank"
}

// Rank returns one window of the feed. Without a profile it falls back to popularity.
func (e *RerankEngine) Rank(ctx context.Context, req RankRequest) ([]FeedItem, error) {
	if req.Profile == nil {
		return e.rankPopular(ctx, req)
	}

	query := NeighborQuery{
		Embedding: req.Profile.PositiveEmbedding,
		Exclude:   e.exclude(req),
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if req.Profile.DislikeActive {
		query.DislikeEmbedding = req.Profile.NegativeEmbedding
	}

	candidates, err := e.nearest(ctx, query)
	if err != nil {
		return nil, err
	}

	ranked := Rerank(candidates, req.Profile, e.settings.DislikeWeight)
	metrics.RerankDislikeApplied.WithLabelValues(strconv.FormatBool(req.Profile.DislikeActive)).Inc()
	e.logSample(req, ranked)

	items := make([]FeedItem, 0, len(ranked))
	for i := range ranked {
		items = append(items, ranked[i].feedItem())
	}
	return items, nil
}

func (e *RerankEngine) rankPopular(ctx context.Context, req RankRequest) ([]FeedItem, error) {
	movies, err := e.movies.PopularUnrated(ctx, e.exclude(req), req.Limit, req.Offset)
	if err != nil {
		e.logger.Error("Failed to get popular movies: " + err.Error())
		return nil, err
	}

	items := make([]FeedItem, 0, len(movies))
	for _, m := range movies {
		items = append(items, FeedItem{Movie: m, Source: SourcePopularity})
	}
	return items, nil
}

// nearest runs a neighbor query under the index timeout
func (e *RerankEngine) nearest(ctx context.Context, query NeighborQuery) ([]Candidate, error) {
	ictx, cancel := context.WithTimeout(ctx, e.settings.IndexTimeout)
	defer cancel()

	candidates, err := e.index.NearestNeighbors(ictx, query)
	if err != nil {
		err = indexError(ctx, err)
		if errors.Is(err, ErrIndexUnavailable) {
			e.logger.Warn("Vector index timed out after " + e.settings.IndexTimeout.String())
		}
		return nil, err
	}
	return candidates, nil
}

func (e *RerankEngine) exclude(req RankRequest) ExcludeFilter {
	return excludeFor(req.UserID, e.now(), e.settings.UnwatchedCooldown)
}

func (e *RerankEngine) logSample(req RankRequest, ranked []RankedCandidate) {
	if len(ranked) == 0 || !ranked[0].Reranked {
		return
	}

	sample := make([]logger.Fields, 0, min(logSampleSize, len(ranked)))
	for _, r := range ranked[:min(logSampleSize, len(ranked))] {
		entry := logger.Fields{
			"movie_id":    r.Movie.ID,
			"distance":    r.Distance,
			"like_score":  r.LikeScore,
			"final_score": r.FinalScore,
		}
		if r.DislikeScore != nil {
			entry["dislike_score"] = *r.DislikeScore
		}
		sample = append(sample, entry)
	}

	e.logger.InfoFields("Reranked feed window", logger.Fields{
		"user_id":         req.UserID.String(),
		"offset":          req.Offset,
		"candidates":      len(ranked),
		"dislike_applied": req.Profile.DislikeActive,
		"top":             sample,
	})
}

// indexError maps a timeout of the index call itself to ErrIndexUnavailable.
// Cancellation by the caller is passed through unchanged.
func indexError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return err
}

func excludeFor(userID uuid.UUID, now time.Time, cooldown time.Duration) ExcludeFilter {
	return ExcludeFilter{
		UserID:          userID,
		UnwatchedBefore: now.Add(-cooldown),
	}
}

// Rerank orders one batch of candidates for a user profile.
//
// Without a liked context the batch keeps its index order and only gets a similarity.
// Otherwise each candidate is scored against the liked context, minus dislikeWeight times
// its score against the disliked context when the dislike profile is active, and the batch
// is sorted by final score, then distance, then vote count.
func Rerank(candidates []Candidate, prof *profile.UserProfile, dislikeWeight float64) []RankedCandidate {
	ranked := make([]RankedCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = RankedCandidate{Candidate: c, Similarity: 1 - c.Distance}
	}
	if prof == nil || prof.PositiveContext == nil || len(ranked) == 0 {
		return ranked
	}

	maxPopularity := 0
	for _, c := range candidates {
		maxPopularity = max(maxPopularity, c.Popularity())
	}

	useDislike := prof.DislikeActive && prof.NegativeContext != nil
	for i := range ranked {
		r := &ranked[i]
		content := rerank.BuildSingle(r.Content())
		r.LikeScore = rerank.Score(prof.PositiveContext, content, r.Distance, r.VoteCount, maxPopularity)
		r.FinalScore = r.LikeScore
		if useDislike && r.DislikeDistance != nil {
			dislike := rerank.Score(prof.NegativeContext, content, *r.DislikeDistance, r.VoteCount, maxPopularity)
			r.DislikeScore = &dislike
			r.FinalScore -= dislikeWeight * dislike
		}
		r.Reranked = true
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sortKey().Before(ranked[j].sortKey())
	})
	return ranked
}

// RerankSimilar scores neighbors of an anchor movie by content overlap with it and keeps the best topN
func RerankSimilar(anchor *rerank.ScoringContext, candidates []Candidate, topN int) []SimilarMovie {
	maxPopularity := 0
	for _, c := range candidates {
		maxPopularity = max(maxPopularity, c.Popularity())
	}

	ranked := make([]RankedCandidate, len(candidates))
	for i, c := range candidates {
		score := rerank.Score(anchor, rerank.BuildSingle(c.Content()), c.Distance, c.VoteCount, maxPopularity)
		ranked[i] = RankedCandidate{Candidate: c, LikeScore: score, FinalScore: score, Similarity: 1 - c.Distance, Reranked: true}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sortKey().Before(ranked[j].sortKey())
	})

	ranked = ranked[:min(topN, len(ranked))]
	out := make([]SimilarMovie, 0, len(ranked))
	for _, r := range ranked {
		score := r.FinalScore
		out = append(out, SimilarMovie{Movie: r.Movie, Distance: r.Distance, Score: &score})
	}
	return out
}

func (r *RankedCandidate) sortKey() rerank.SortKey {
	return rerank.SortKey{Score: r.FinalScore, Distance: r.Distance, Popularity: r.Popularity()}
}

func (r *RankedCandidate) feedItem() FeedItem {
	distance := r.Distance
	similarity := r.Similarity
	item := FeedItem{
		Movie:      r.Movie,
		Distance:   &distance,
		Similarity: &similarity,
		Source:     SourceProfile,
	}
	if r.Reranked {
		score := r.FinalScore
		item.Score = &score
	}
	return item
}
