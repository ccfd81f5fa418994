//go:build integration
// +build integration

package integration

import (
	"fmt"
	"net/http"

	"github.com/stretchr/testify/suite"
)

type RatingTestSuite struct {
	suite.Suite
	api     *apiClient
	movieID int64
}

func (suite *RatingTestSuite) SetupTest() {
	suite.api = newAPIClient(suite.T())
	suite.movieID = suite.api.lookupSeedMovie(suite.T())
}

func (suite *RatingTestSuite) ratingPath() string {
	return fmt.Sprintf("/ratings/movies/%d", suite.movieID)
}

func (suite *RatingTestSuite) TestRateAndGet() {
	suite.Require().Equal(http.StatusOK, suite.api.rate(suite.T(), suite.movieID, intPtr(5), "watched"))

	var rating map[string]any
	code := suite.api.getJSON(suite.T(), suite.ratingPath(), true, &rating)
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal(float64(suite.movieID), rating["movie_id"])
	suite.Equal(float64(5), rating["rating"])
	suite.Equal("watched", rating["status"])
}

func (suite *RatingTestSuite) TestRateUnwatched() {
	suite.Require().Equal(http.StatusOK, suite.api.rate(suite.T(), suite.movieID, nil, "unwatched"))

	var rating map[string]any
	suite.Require().Equal(http.StatusOK, suite.api.getJSON(suite.T(), suite.ratingPath(), true, &rating))
	suite.Nil(rating["rating"])
	suite.Equal("unwatched", rating["status"])
}

func (suite *RatingTestSuite) TestRateInvalid() {
	tests := []struct {
		name   string
		rating *int
		status string
	}{
		{"Above range", intPtr(6), "watched"},
		{"Below range", intPtr(0), "watched"},
		{"Watched without rating", nil, "watched"},
		{"Unknown status", intPtr(3), "skipped"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.Equal(http.StatusBadRequest, suite.api.rate(suite.T(), suite.movieID, tt.rating, tt.status))
		})
	}
}

func (suite *RatingTestSuite) TestRateUnknownMovie() {
	suite.Equal(http.StatusNotFound, suite.api.rate(suite.T(), 999999999, intPtr(4), "watched"))
}

func (suite *RatingTestSuite) TestRateUnauthorized() {
	resp, err := suite.api.do(http.MethodPut, suite.ratingPath(), map[string]any{"rating": 4}, false)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (suite *RatingTestSuite) TestListAndDelete() {
	suite.Require().Equal(http.StatusOK, suite.api.rate(suite.T(), suite.movieID, intPtr(4), "watched"))

	var list struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	suite.Require().Equal(http.StatusOK, suite.api.getJSON(suite.T(), "/ratings?page=1&limit=10", true, &list))
	suite.Equal(int64(1), list.Pagination.Total)
	suite.Require().Len(list.Data, 1)
	suite.Equal(seedTitle, list.Data[0]["title"])

	resp, err := suite.api.do(http.MethodDelete, suite.ratingPath(), nil, true)
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	suite.Equal(http.StatusNotFound, suite.api.getJSON(suite.T(), suite.ratingPath(), true, nil))
}
