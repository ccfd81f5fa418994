package profile

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dustin/movie-recommender/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for profile operations
type Handler struct {
	service Service
}

// NewHandler creates a new profile handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// GetProfile returns the caller's profile statistics
func (h *Handler) GetProfile(c *gin.Context) {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetMatch returns how well a movie matches the caller's profile
func (h *Handler) GetMatch(c *gin.Context) {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	movieID, err := strconv.ParseInt(c.Param("movieId"), 10, 64)
	if err != nil || movieID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movie ID"})
		return
	}

	score, err := h.service.Match(c.Request.Context(), userID, movieID)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Movie not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute match"})
		return
	}

	c.JSON(http.StatusOK, MatchResponse{MovieID: movieID, Score: score})
}

// RegisterRoutes registers all profile routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	profile := router.Group("/profile")
	profile.Use(middleware...)
	{
		profile.GET("", h.GetProfile)
		profile.GET("/match/:movieId", h.GetMatch)
	}
}
