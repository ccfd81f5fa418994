package rating

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dustin/movie-recommender/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handler handles HTTP requests for rating operations
type Handler struct {
	service Service
}

// NewHandler creates a new rating handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RateMovie handles rating creation/update
func (h *Handler) RateMovie(c *gin.Context) {
	var req RateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, movieID, ok := h.parseTarget(c)
	if !ok {
		return
	}

	rating, err := h.service.Rate(c.Request.Context(), userID, movieID, req.Rating, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrMovieNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Movie not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rate movie"})
		}
		return
	}

	c.JSON(http.StatusOK, rating.ToResponse())
}

// GetRating handles getting a specific rating
func (h *Handler) GetRating(c *gin.Context) {
	userID, movieID, ok := h.parseTarget(c)
	if !ok {
		return
	}

	rating, err := h.service.GetRating(c.Request.Context(), userID, movieID)
	if err != nil {
		if errors.Is(err, ErrRatingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get rating"})
		return
	}

	c.JSON(http.StatusOK, rating.ToResponse())
}

// DeleteRating handles rating deletion
func (h *Handler) DeleteRating(c *gin.Context) {
	userID, movieID, ok := h.parseTarget(c)
	if !ok {
		return
	}

	if err := h.service.DeleteRating(c.Request.Context(), userID, movieID); err != nil {
		if errors.Is(err, ErrRatingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rating"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rating deleted successfully"})
}

// ListRatings handles listing the caller's ratings, newest first
func (h *Handler) ListRatings(c *gin.Context) {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := utils.ParseLimit(c.Query("limit"), defaultListLimit, maxListLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	ratings, total, err := h.service.ListRatings(c.Request.Context(), userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ratings"})
		return
	}

	data := make([]*RatingResponse, 0, len(ratings))
	for i := range ratings {
		data = append(data, ratings[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       data,
		"pagination": utils.CalculatePagination(total, page, limit),
	})
}

// parseTarget reads the caller and the movie id from the request, writing the error response itself
func (h *Handler) parseTarget(c *gin.Context) (uuid.UUID, int64, bool) {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return uuid.Nil, 0, false
	}

	movieID, err := strconv.ParseInt(c.Param("movieId"), 10, 64)
	if err != nil || movieID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movie ID"})
		return uuid.Nil, 0, false
	}

	return userID, movieID, true
}

// RegisterRoutes registers all rating routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	ratings := router.Group("/ratings")
	ratings.Use(middleware...)
	{
		ratings.GET("", h.ListRatings)
		ratings.PUT("/movies/:movieId", h.RateMovie)
		ratings.GET("/movies/:movieId", h.GetRating)
		ratings.DELETE("/movies/:movieId", h.DeleteRating)
	}
}
