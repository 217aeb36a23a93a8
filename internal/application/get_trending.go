package application

import (
	"context"
	"fmt"

	"github.com/joacominatel/pulsefeed/internal/domain"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/logging"
)

// trending page sizes.
const (
	DefaultTrendingLimit = 10
	MaxTrendingLimit     = 50
)

// GetTrendingInput contains the data needed to read the trending board.
type GetTrendingInput struct {
	ViewerID string
	Limit    int
}

// TrendingPost is a post with its trending score.
type TrendingPost struct {
	Post  *domain.Post
	Score float64
}

// GetTrendingUseCase returns the posts with the most recent interactions.
type GetTrendingUseCase struct {
	board  domain.TrendingBoard
	posts  domain.PostStore
	logger *logging.Logger
}

// NewGetTrendingUseCase creates a new GetTrendingUseCase.
func NewGetTrendingUseCase(board domain.TrendingBoard, posts domain.PostStore, logger *logging.Logger) *GetTrendingUseCase {
	return &GetTrendingUseCase{
		board:  board,
		posts:  posts,
		logger: logger.WithComponent("get_trending"),
	}
}

// Execute reads the board and loads the posts in board order.
// posts deleted since they trended are skipped.
func (uc *GetTrendingUseCase) Execute(ctx context.Context, input GetTrendingInput) ([]TrendingPost, error) {
	viewerID, err := domain.ParseUserID(input.ViewerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = DefaultTrendingLimit
	case limit > MaxTrendingLimit:
		limit = MaxTrendingLimit
	}

	entries, err := uc.board.Top(ctx, limit)
	if err != nil {
		uc.logger.Error("trending board read failed", "error", err.Error())
		return nil, fmt.Errorf("reading trending board: %w", err)
	}
	if len(entries) == 0 {
		return []TrendingPost{}, nil
	}

	ids := make([]domain.PostID, len(entries))
	for i, e := range entries {
		ids[i] = e.PostID
	}

	posts, err := uc.posts.FindByIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading trending posts: %w", err)
	}

	byID := make(map[domain.PostID]*domain.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	out := make([]TrendingPost, 0, len(entries))
	for _, e := range entries {
		if p, ok := byID[e.PostID]; ok {
			out = append(out, TrendingPost{Post: p, Score: e.Score})
		}
	}
	return out, nil
}
