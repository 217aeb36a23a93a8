package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joacominatel/pulsefeed/internal/application"
	"github.com/joacominatel/pulsefeed/internal/domain"
)

// FeedLimits bounds the page size a client may ask for.
type FeedLimits struct {
	Default int
	Max     int
}

// FeedHandler handles feed related HTTP requests.
type FeedHandler struct {
	rankFeed *application.RankFeedUseCase
	limits   FeedLimits
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(rankFeed *application.RankFeedUseCase, limits FeedLimits) *FeedHandler {
	if limits.Max < 1 || limits.Max > domain.MaxPageLimit {
		limits.Max = domain.MaxPageLimit
	}
	if limits.Default < 1 || limits.Default > limits.Max {
		limits.Default = min(domain.DefaultPageLimit, limits.Max)
	}
	return &FeedHandler{
		rankFeed: rankFeed,
		limits:   limits,
	}
}

// RegisterRoutes registers the feed routes on the given group.
func (h *FeedHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/feed/:strategy", h.GetFeed)
	g.GET("/strategies", h.ListStrategies)
}

// EngagementResponse mirrors the post counters.
type EngagementResponse struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Saves    int64 `json:"saves"`
	Shares   int64 `json:"shares"`
	Reports  int64 `json:"reports"`
}

// PayloadResponse carries the category specific post fields.
// only the fields of the post's category are set.
type PayloadResponse struct {
	Text          string `json:"text,omitempty"`
	EventID       string `json:"event_id,omitempty"`
	EventCategory string `json:"event_category,omitempty"`
	CommunityID   string `json:"community_id,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Advertiser    string `json:"advertiser,omitempty"`
}

// PostResponse is one post of a feed page.
type PostResponse struct {
	ID                   string             `json:"id"`
	AuthorID             string             `json:"author_id"`
	Category             string             `json:"category"`
	CreatedAt            time.Time          `json:"created_at"`
	Engagement           EngagementResponse `json:"engagement"`
	IsFollowingAuthor    bool               `json:"is_following_author"`
	Payload              PayloadResponse    `json:"payload"`
	Score                float64            `json:"score"`
	PersonalizationScore float64            `json:"personalization_score,omitempty"`
}

// FeedResponse is one ranked page.
type FeedResponse struct {
	Strategy    string         `json:"strategy"`
	Posts       []PostResponse `json:"posts"`
	NextCursor  string         `json:"next_cursor,omitempty"`
	HasMore     bool           `json:"has_more"`
	CursorReset bool           `json:"cursor_reset,omitempty"`
}

// StrategyResponse describes one registered strategy.
type StrategyResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StrategiesResponse lists the strategies a client can ask for.
type StrategiesResponse struct {
	Strategies []StrategyResponse `json:"strategies"`
}

// GetFeed handles GET /api/v1/feed/:strategy
// returns one page of the viewer's feed for the given strategy.
//
// @Summary Get feed page
// @Description Ranks and mixes the viewer's candidate posts with the named strategy
// @Tags feed
// @Produce json
// @Param strategy path string true "Strategy name"
// @Param cursor query string false "Cursor from the previous page"
// @Param limit query int false "Page size"
// @Success 200 {object} FeedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/feed/{strategy} [get]
func (h *FeedHandler) GetFeed(c echo.Context) error {
	limit, err := h.parseLimit(c.QueryParam("limit"))
	if err != nil {
		return err
	}

	output, err := h.rankFeed.Execute(c.Request().Context(), application.RankFeedInput{
		ViewerID: GetViewerID(c),
		Strategy: c.Param("strategy"),
		Cursor:   c.QueryParam("cursor"),
		Limit:    limit,
	})
	if err != nil {
		return mapDomainError(err)
	}

	posts := make([]PostResponse, 0, len(output.Posts))
	for _, rp := range output.Posts {
		posts = append(posts, toPostResponse(rp.Post, rp.Score, rp.PersonalizationScore))
	}

	return c.JSON(http.StatusOK, FeedResponse{
		Strategy:    output.Strategy,
		Posts:       posts,
		NextCursor:  output.NextCursor,
		HasMore:     output.HasMore,
		CursorReset: output.CursorReset,
	})
}

// ListStrategies handles GET /api/v1/strategies
//
// @Summary List feed strategies
// @Tags feed
// @Produce json
// @Success 200 {object} StrategiesResponse
// @Router /api/v1/strategies [get]
func (h *FeedHandler) ListStrategies(c echo.Context) error {
	infos := h.rankFeed.Strategies()

	out := make([]StrategyResponse, 0, len(infos))
	for _, s := range infos {
		out = append(out, StrategyResponse{Name: s.Name, Description: s.Description})
	}
	return c.JSON(http.StatusOK, StrategiesResponse{Strategies: out})
}

// parseLimit applies the configured default and cap.
// a missing or non-positive limit means the default.
func (h *FeedHandler) parseLimit(raw string) (int, error) {
	if raw == "" {
		return h.limits.Default, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}
	switch {
	case n <= 0:
		return h.limits.Default, nil
	case n > h.limits.Max:
		return h.limits.Max, nil
	default:
		return n, nil
	}
}

func toPostResponse(p *domain.Post, score, personalization float64) PostResponse {
	e := p.Engagement
	return PostResponse{
		ID:                   p.ID.String(),
		AuthorID:             p.AuthorID.String(),
		Category:             p.Category.String(),
		CreatedAt:            p.CreatedAt,
		Engagement:           EngagementResponse{Likes: e.Likes, Comments: e.Comments, Saves: e.Saves, Shares: e.Shares, Reports: e.Reports},
		IsFollowingAuthor:    p.IsFollowingAuthor,
		Payload:              toPayloadResponse(p),
		Score:                score,
		PersonalizationScore: personalization,
	}
}

func toPayloadResponse(p *domain.Post) PayloadResponse {
	var out PayloadResponse

	out.Text = p.Text()
	out.EventID, _ = p.EventID()
	out.EventCategory, _ = p.EventCategory()
	if id, ok := p.CommunityID(); ok {
		out.CommunityID = id.String()
	}

	switch pl := p.Payload.(type) {
	case domain.ActivityPayload:
		if p.Category == domain.CategoryActivity {
			out.Summary = pl.Summary
		}
	case domain.SponsoredPayload:
		if p.Category == domain.CategorySponsored {
			out.Advertiser = pl.Advertiser
		}
	}
	return out
}
