package recommendation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dustin/movie-recommender/internal/feedcache"
	"github.com/dustin/movie-recommender/internal/movie"
	"github.com/dustin/movie-recommender/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	defaultQueueSize = 20
	retryAfter       = "5"
)

// Handler handles HTTP requests for recommendation operations
type Handler struct {
	service Service
	images  *movie.ImageURLs
}

// NewHandler creates a new recommendation handler
func NewHandler(service Service, images *movie.ImageURLs) *Handler {
	return &Handler{
		service: service,
		images:  images,
	}
}

// GetFeed returns one page of the caller's ranked feed
func (h *Handler) GetFeed(c *gin.Context) {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	limit, err := utils.ParseLimit(c.Query("limit"), defaultPageSize, maxPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	page, err := h.service.GetRecommendationsPage(c.Request.Context(), userID, limit, c.Query("cursor"))
	if err != nil {
		h.writeError(c, err, "Failed to get recommendations")
		return
	}

	c.JSON(http.StatusOK, BuildFeedResponse(page, h.images))
}

// GetNext returns the single best movie to rate next
func (h *Handler) GetNext(c *gin.Context) {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	item, err := h.service.NextMovie(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoMoreMovies) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No more unrated movies"})
			return
		}
		h.writeError(c, err, "Failed to get next movie")
		return
	}

	c.JSON(http.StatusOK, item.ToResponse(h.images))
}

// GetQueue returns popular movies the caller has not rated yet
func (h *Handler) GetQueue(c *gin.Context) {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	limit, err := utils.ParseLimit(c.Query("limit"), defaultQueueSize, maxPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	offset, err := utils.ParseCursor(c.Query("offset"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}

	movies, err := h.service.RatingQueue(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.writeError(c, err, "Failed to get rating queue")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   BuildQueueResponse(movies, h.images),
		"limit":  limit,
		"offset": offset,
	})
}

// GetSimilar returns the nearest neighbors of a movie
func (h *Handler) GetSimilar(c *gin.Context) {
	movieID, err := strconv.ParseInt(c.Param("movieId"), 10, 64)
	if err != nil || movieID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movie ID"})
		return
	}

	k := 0
	if raw := c.Query("k"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil || k < 1 || k > maxSimilar {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be between 1 and 100"})
			return
		}
	}

	similar, err := h.service.SimilarMovies(c.Request.Context(), movieID, k)
	if err != nil {
		switch {
		case errors.Is(err, movie.ErrMovieNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Movie not found"})
		case errors.Is(err, ErrEmbeddingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Movie has no embedding"})
		default:
			h.writeError(c, err, "Failed to get similar movies")
		}
		return
	}

	data := make([]SimilarMovieResponse, 0, len(similar))
	for i := range similar {
		data = append(data, similar[i].ToResponse(h.images))
	}
	c.JSON(http.StatusOK, gin.H{"movie_id": movieID, "data": data})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, utils.ErrInvalidCursor), errors.Is(err, feedcache.ErrInvalidPage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
	case errors.Is(err, feedcache.ErrCursorOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cursor is too far ahead, page through the feed from the start"})
	case errors.Is(err, ErrIndexUnavailable):
		c.Header("Retry-After", retryAfter)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recommendations are temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// RegisterRoutes registers all recommendation routes. Similar movies are public, the feed
// requires authMiddleware. The remaining middleware runs on every route.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc, middleware ...gin.HandlerFunc) {
	similar := append(append([]gin.HandlerFunc{}, middleware...), h.GetSimilar)
	router.GET("/movies/:movieId/similar", similar...)

	feed := router.Group("/feed")
	feed.Use(authMiddleware)
	feed.Use(middleware...)
	{
		feed.GET("", h.GetFeed)
		feed.GET("/next", h.GetNext)
		feed.GET("/queue", h.GetQueue)
	}
}
