package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/joacominatel/pulsefeed/internal/application"
)

// TrendingHandler serves the trending board.
type TrendingHandler struct {
	// getTrending is nil when redis is disabled
	getTrending *application.GetTrendingUseCase
}

// NewTrendingHandler creates a new TrendingHandler.
func NewTrendingHandler(getTrending *application.GetTrendingUseCase) *TrendingHandler {
	return &TrendingHandler{getTrending: getTrending}
}

// RegisterRoutes registers the trending routes on the given group.
func (h *TrendingHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/trending", h.GetTrending)
}

// TrendingPostResponse is a post with its trending score.
type TrendingPostResponse struct {
	PostResponse
	TrendingScore float64 `json:"trending_score"`
}

// TrendingResponse lists trending posts, hottest first.
type TrendingResponse struct {
	Posts   []TrendingPostResponse `json:"posts"`
	Enabled bool                   `json:"enabled"`
}

// GetTrending handles GET /api/v1/trending
//
// @Summary Trending posts
// @Description Lists the posts with the most weighted recent interactions
// @Tags trending
// @Produce json
// @Param limit query int false "Number of posts (max 50)"
// @Success 200 {object} TrendingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/trending [get]
func (h *TrendingHandler) GetTrending(c echo.Context) error {
	if h.getTrending == nil {
		return c.JSON(http.StatusOK, TrendingResponse{Posts: []TrendingPostResponse{}})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = n
	}

	trending, err := h.getTrending.Execute(c.Request().Context(), application.GetTrendingInput{
		ViewerID: GetViewerID(c),
		Limit:    limit,
	})
	if err != nil {
		return mapDomainError(err)
	}

	posts := make([]TrendingPostResponse, 0, len(trending))
	for _, tp := range trending {
		posts = append(posts, TrendingPostResponse{
			PostResponse:  toPostResponse(tp.Post, 0, 0),
			TrendingScore: tp.Score,
		})
	}
	return c.JSON(http.StatusOK, TrendingResponse{Posts: posts, Enabled: true})
}
