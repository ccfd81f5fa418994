package movie

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/movie-recommender/internal/rerank"
)

var ErrMovieNotFound = errors.New("movie not found")

// Movie is a TMDB title as loaded by the ingestion pipeline
type Movie struct {
	ID               int64      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Title            string     `json:"title" gorm:"size:500;index"`
	OriginalTitle    string     `json:"original_title" gorm:"size:500"`
	ReleaseDate      *time.Time `json:"release_date" gorm:"type:date"`
	Genres           string     `json:"genres" gorm:"type:text"`
	Keywords         string     `json:"keywords" gorm:"type:text"`
	Overview         string     `json:"overview" gorm:"type:text"`
	Tagline          string     `json:"tagline" gorm:"type:text"`
	Runtime          *int       `json:"runtime"`
	OriginalLanguage string     `json:"original_language" gorm:"size:16"`
	VoteAverage      *float64   `json:"vote_average"`
	VoteCount        *int       `json:"vote_count" gorm:"index"`
	PosterPath       string     `json:"poster_path" gorm:"size:255"`
	BackdropPath     string     `json:"backdrop_path" gorm:"size:255"`
}

// TableName returns the table name for GORM
func (Movie) TableName() string {
	return "movies"
}

// Content returns the fields that feed content similarity
func (m *Movie) Content() rerank.Content {
	return rerank.Content{
		Genres:      m.Genres,
		Keywords:    m.Keywords,
		Runtime:     m.Runtime,
		ReleaseDate: m.ReleaseDate,
		Language:    m.OriginalLanguage,
	}
}

// Popularity is the vote count, 0 when unknown
func (m *Movie) Popularity() int {
	if m.VoteCount == nil {
		return 0
	}
	return *m.VoteCount
}

// Repository defines the interface for movie data access
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Movie, error)
	FindByTitle(ctx context.Context, title string) (*Movie, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service defines the interface for movie lookups
type Service interface {
	GetMovie(ctx context.Context, id int64) (*Movie, error)
	Lookup(ctx context.Context, title string) (*Movie, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// DetailResponse represents a movie in API responses
type DetailResponse struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	OriginalTitle    string     `json:"original_title"`
	ReleaseDate      *time.Time `json:"release_date"`
	Genres           string     `json:"genres"`
	Overview         string     `json:"overview"`
	Tagline          string     `json:"tagline"`
	Runtime          *int       `json:"runtime"`
	OriginalLanguage string     `json:"original_language"`
	VoteAverage      *float64   `json:"vote_average"`
	VoteCount        *int       `json:"vote_count"`
	PosterPath       string     `json:"poster_path"`
	BackdropPath     string     `json:"backdrop_path"`
	PosterURL        *string    `json:"poster_url"`
	BackdropURL      *string    `json:"backdrop_url"`
}

// LookupResponse is the result of a title lookup
type LookupResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ToResponse converts Movie to DetailResponse
func (m *Movie) ToResponse(images *ImageURLs) *DetailResponse {
	return &DetailResponse{
		ID:               m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		ReleaseDate:      m.ReleaseDate,
		Genres:           m.Genres,
		Overview:         m.Overview,
		Tagline:          m.Tagline,
		Runtime:          m.Runtime,
		OriginalLanguage: m.OriginalLanguage,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		PosterURL:        images.Poster(m.PosterPath),
		BackdropURL:      images.Backdrop(m.BackdropPath),
	}
}
