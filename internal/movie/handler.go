package movie

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for movie lookups
type Handler struct {
	service Service
	images  *ImageURLs
}

// NewHandler creates a new movie handler
func NewHandler(service Service, images *ImageURLs) *Handler {
	return &Handler{
		service: service,
		images:  images,
	}
}

// GetMovie handles fetching one movie by id
func (h *Handler) GetMovie(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("movieId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movie ID"})
		return
	}

	m, err := h.service.GetMovie(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Movie not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load movie"})
		return
	}

	c.JSON(http.StatusOK, m.ToResponse(h.images))
}

// Lookup handles finding the best title match
func (h *Handler) Lookup(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	m, err := h.service.Lookup(c.Request.Context(), title)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Movie not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up movie"})
		return
	}

	c.JSON(http.StatusOK, LookupResponse{ID: m.ID, Title: m.Title})
}

// RegisterRoutes registers all movie routes. Movie data is public.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	movies := router.Group("/movies")
	movies.Use(middleware...)
	{
		movies.GET("/lookup", h.Lookup)
		movies.GET("/:movieId", h.GetMovie)
	}
}
