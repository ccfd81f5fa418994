//go:build integration
// +build integration

package integration

import (
	"net/http"

	"github.com/stretchr/testify/suite"
)

type feedBody struct {
	Data []struct {
		ID     int64  `json:"id"`
		Source string `json:"source"`
	} `json:"data"`
	Meta struct {
		NextCursor string `json:"next_cursor"`
		HasMore    bool   `json:"has_more"`
		FeedID     string `json:"feed_id"`
	} `json:"meta"`
}

type RecommendationTestSuite struct {
	suite.Suite
	api *apiClient
}

func (suite *RecommendationTestSuite) SetupTest() {
	suite.api = newAPIClient(suite.T())
}

func (suite *RecommendationTestSuite) TestFeedUnauthorized() {
	suite.Equal(http.StatusUnauthorized, suite.api.getJSON(suite.T(), "/feed", false, nil))
}

func (suite *RecommendationTestSuite) TestColdStartFeedIsPopular() {
	var feed feedBody
	suite.Require().Equal(http.StatusOK, suite.api.getJSON(suite.T(), "/feed?limit=5", true, &feed))

	suite.LessOrEqual(len(feed.Data), 5)
	suite.NotEmpty(feed.Meta.FeedID)
	for _, item := range feed.Data {
		suite.Equal("popularity", item.Source)
	}
}

func (suite *RecommendationTestSuite) TestFeedPagination() {
	var first feedBody
	suite.Require().Equal(http.StatusOK, suite.api.getJSON(suite.T(), "/feed?limit=3", true, &first))
	if !first.Meta.HasMore {
		suite.T().Skip("catalog too small to page")
	}

	var second feedBody
	code := suite.api.getJSON(suite.T(), "/feed?limit=3&cursor="+first.Meta.NextCursor, true, &second)
	suite.Require().Equal(http.StatusOK, code)

	// pages of one feed never repeat a movie
	suite.Equal(first.Meta.FeedID, second.Meta.FeedID)
	seen := map[int64]bool{}
	for _, item := range first.Data {
		seen[item.ID] = true
	}
	for _, item := range second.Data {
		suite.False(seen[item.ID], "movie %d repeated across pages", item.ID)
	}
}

func (suite *RecommendationTestSuite) TestInvalidCursor() {
	suite.Equal(http.StatusBadRequest, suite.api.getJSON(suite.T(), "/feed?cursor=abc", true, nil))
}

func (suite *RecommendationTestSuite) TestRatingInvalidatesFeed() {
	movieID := suite.api.lookupSeedMovie(suite.T())

	var before feedBody
	suite.Require().Equal(http.StatusOK, suite.api.getJSON(suite.T(), "/feed?limit=5", true, &before))

	suite.Require().Equal(http.StatusOK, suite.api.rate(suite.T(), movieID, intPtr(5), "watched"))

	var after feedBody
	suite.Require().Equal(http.StatusOK, suite.api.getJSON(suite.T(), "/feed?limit=5", true, &after))
	suite.NotEqual(before.Meta.FeedID, after.Meta.FeedID)
	for _, item := range after.Data {
		suite.NotEqual(movieID, item.ID, "rated movie must leave the feed")
	}
}

func (suite *RecommendationTestSuite) TestNextAndQueue() {
	var next struct {
		ID int64 `json:"id"`
	}
	code := suite.api.getJSON(suite.T(), "/feed/next", true, &next)
	suite.Contains([]int{http.StatusOK, http.StatusNotFound}, code)

	var queue struct {
		Data   []map[string]any `json:"data"`
		Limit  int              `json:"limit"`
		Offset int              `json:"offset"`
	}
	suite.Require().Equal(http.StatusOK, suite.api.getJSON(suite.T(), "/feed/queue?limit=4", true, &queue))
	suite.Equal(4, queue.Limit)
	suite.LessOrEqual(len(queue.Data), 4)
}
