package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dustin/movie-recommender/internal/feedcache"
	"github.com/dustin/movie-recommender/internal/movie"
	"github.com/dustin/movie-recommender/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	page     *Page
	similar  []SimilarMovie
	next     *FeedItem
	err      error
	pageSize int
	cursor   string
	k        int
}

func (s *stubService) GetRecommendationsPage(ctx context.Context, userID uuid.UUID, pageSize int, cursor string) (*Page, error) {
	s.pageSize, s.cursor = pageSize, cursor
	return s.page, s.err
}

func (s *stubService) Invalidate(userID uuid.UUID) {}

func (s *stubService) SimilarMovies(ctx context.Context, movieID int64, k int) ([]SimilarMovie, error) {
	s.k = k
	return s.similar, s.err
}

func (s *stubService) NextMovie(ctx context.Context, userID uuid.UUID) (*FeedItem, error) {
	return s.next, s.err
}

func (s *stubService) RatingQueue(ctx context.Context, userID uuid.UUID, limit, offset int) ([]movie.Movie, error) {
	return nil, s.err
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	auth := func(c *gin.Context) {
		c.Set(utils.UserIDKey, uuid.New())
		c.Next()
	}
	NewHandler(svc, movie.NewImageURLs(nil)).RegisterRoutes(router.Group("/api/v1"), auth)
	return router
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_GetFeed(t *testing.T) {
	t.Run("Envelope carries pagination state", func(t *testing.T) {
		score := 0.8
		svc := &stubService{page: &Page{
			Items: []FeedItem{{Movie: movie.Movie{ID: 5, Title: "Heat", PosterPath: "/heat.jpg"}, Score: &score, Source: SourceProfile}},
			Meta:  PageMeta{NextCursor: "20", HasMore: true, FeedID: "feed-1"},
		}}

		w := serve(newTestRouter(svc), "/api/v1/feed?limit=20&cursor=0")

		require.Equal(t, http.StatusOK, w.Code)
		var body FeedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, int64(5), body.Data[0].ID)
		assert.Equal(t, SourceProfile, body.Data[0].Source)
		require.NotNil(t, body.Data[0].PosterURL)
		assert.Equal(t, "https://image.tmdb.org/t/p/w500/heat.jpg", *body.Data[0].PosterURL)
		assert.Nil(t, body.Data[0].BackdropURL)
		assert.Equal(t, "20", body.Meta.NextCursor)
		assert.True(t, body.Meta.HasMore)
		assert.Equal(t, "feed-1", body.Meta.FeedID)
		assert.Equal(t, 20, svc.pageSize)
		assert.Equal(t, "0", svc.cursor)
	})

	t.Run("Large limit is clamped", func(t *testing.T) {
		svc := &stubService{page: &Page{}}

		w := serve(newTestRouter(svc), "/api/v1/feed?limit=1000")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, maxPageSize, svc.pageSize)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Invalid cursor", utils.ErrInvalidCursor, http.StatusBadRequest},
		{"Cursor out of range", feedcache.ErrCursorOutOfRange, http.StatusBadRequest},
		{"Index unavailable", fmt.Errorf("%w: timeout", ErrIndexUnavailable), http.StatusServiceUnavailable},
		{"Unexpected failure", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newTestRouter(&stubService{err: tt.err}), "/api/v1/feed")

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, retryAfter, w.Header().Get("Retry-After"))
			}
		})
	}
}

func TestHandler_GetSimilar(t *testing.T) {
	t.Run("Default k", func(t *testing.T) {
		svc := &stubService{similar: []SimilarMovie{{Movie: movie.Movie{ID: 2}, Distance: 0.1}}}

		w := serve(newTestRouter(svc), "/api/v1/movies/1/similar")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, svc.k)
		assert.Contains(t, w.Body.String(), `"movie_id":1`)
	})

	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"k above limit", "/api/v1/movies/1/similar?k=101", nil, http.StatusBadRequest},
		{"k below limit", "/api/v1/movies/1/similar?k=0", nil, http.StatusBadRequest},
		{"Bad movie id", "/api/v1/movies/abc/similar", nil, http.StatusBadRequest},
		{"Unknown movie", "/api/v1/movies/1/similar", movie.ErrMovieNotFound, http.StatusNotFound},
		{"No embedding", "/api/v1/movies/1/similar", ErrEmbeddingNotFound, http.StatusNotFound},
		{"Index unavailable", "/api/v1/movies/1/similar", ErrIndexUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newTestRouter(&stubService{err: tt.err}), tt.path)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandler_GetNext(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		svc := &stubService{next: &FeedItem{Movie: movie.Movie{ID: 9}, Source: SourcePopularity}}

		w := serve(newTestRouter(svc), "/api/v1/feed/next")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"source":"popularity"`)
	})

	t.Run("Everything rated", func(t *testing.T) {
		w := serve(newTestRouter(&stubService{err: ErrNoMoreMovies}), "/api/v1/feed/next")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_GetQueue(t *testing.T) {
	t.Run("Empty queue", func(t *testing.T) {
		w := serve(newTestRouter(&stubService{}), "/api/v1/feed/queue?limit=5&offset=10")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":[],"limit":5,"offset":10}`, w.Body.String())
	})

	t.Run("Bad offset", func(t *testing.T) {
		w := serve(newTestRouter(&stubService{}), "/api/v1/feed/queue?offset=-1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_RegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var authCalls, sharedCalls int
	auth := func(c *gin.Context) {
		authCalls++
		c.Set(utils.UserIDKey, uuid.New())
		c.Next()
	}
	shared := func(c *gin.Context) {
		sharedCalls++
		c.Next()
	}
	svc := &stubService{page: &Page{}}
	NewHandler(svc, movie.NewImageURLs(nil)).RegisterRoutes(router.Group("/api/v1"), auth, shared)

	serve(router, "/api/v1/movies/1/similar")
	assert.Equal(t, 0, authCalls)
	assert.Equal(t, 1, sharedCalls)

	serve(router, "/api/v1/feed")
	assert.Equal(t, 1, authCalls)
	assert.Equal(t, 2, sharedCalls)
}
