//go:build integration
// +build integration

package integration

import (
	"fmt"
	"net/http"

	"github.com/stretchr/testify/suite"
)

type MovieTestSuite struct {
	suite.Suite
	api     *apiClient
	movieID int64
}

func (suite *MovieTestSuite) SetupSuite() {
	suite.api = newAPIClient(suite.T())
	suite.movieID = suite.api.lookupSeedMovie(suite.T())
}

func (suite *MovieTestSuite) TestGetMovie() {
	var detail map[string]any
	code := suite.api.getJSON(suite.T(), fmt.Sprintf("/movies/%d", suite.movieID), false, &detail)

	suite.Require().Equal(http.StatusOK, code)
	suite.Equal(float64(suite.movieID), detail["id"])
	suite.Equal(seedTitle, detail["title"])
	suite.Contains(detail, "poster_url")
}

func (suite *MovieTestSuite) TestGetMovieNotFound() {
	code := suite.api.getJSON(suite.T(), "/movies/999999999", false, nil)
	suite.Equal(http.StatusNotFound, code)
}

func (suite *MovieTestSuite) TestLookupWithoutTitle() {
	code := suite.api.getJSON(suite.T(), "/movies/lookup", false, nil)
	suite.Equal(http.StatusBadRequest, code)
}

func (suite *MovieTestSuite) TestSimilarMovies() {
	var body struct {
		MovieID int64 `json:"movie_id"`
		Data    []struct {
			ID       int64   `json:"id"`
			Distance float64 `json:"distance"`
		} `json:"data"`
	}
	code := suite.api.getJSON(suite.T(), fmt.Sprintf("/movies/%d/similar?k=5", suite.movieID), false, &body)
	if code == http.StatusNotFound {
		suite.T().Skip("seed movie has no embedding")
	}

	suite.Require().Equal(http.StatusOK, code)
	suite.Equal(suite.movieID, body.MovieID)
	suite.LessOrEqual(len(body.Data), 5)
	for _, m := range body.Data {
		suite.NotEqual(suite.movieID, m.ID, "anchor must not be its own neighbor")
	}
}

func (suite *MovieTestSuite) TestSimilarMoviesInvalidK() {
	code := suite.api.getJSON(suite.T(), fmt.Sprintf("/movies/%d/similar?k=101", suite.movieID), false, nil)
	suite.Equal(http.StatusBadRequest, code)
}
