package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joacominatel/pulsefeed/internal/domain"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/logging"
)

// TimeProvider abstracts time acquisition for testability.
// inject a custom implementation to control time in tests.
type TimeProvider func() time.Time

// RealTime returns the current UTC time.
// use this in production.
func RealTime() time.Time {
	return time.Now().UTC()
}

// FeedConfig contains parameters for serving feeds.
type FeedConfig struct {
	// Timeout bounds the store calls of one request.
	Timeout time.Duration

	// CandidateFactor is how many candidates are fetched per requested post,
	// so strategies that filter still fill a page.
	CandidateFactor int

	// MaxCandidates caps a single candidate fetch.
	MaxCandidates int
}

// DefaultFeedConfig returns sensible defaults.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Timeout:         2 * time.Second,
		CandidateFactor: 3,
		MaxCandidates:   500,
	}
}

// candidateLimit is the store fetch size for a page of limit posts.
func (c FeedConfig) candidateLimit(limit int) int {
	n := limit * max(1, c.CandidateFactor)
	if c.MaxCandidates > 0 && n > c.MaxCandidates {
		n = max(limit, c.MaxCandidates)
	}
	return n
}

// CandidateBatch is one store response, as kept by a CandidateCache.
type CandidateBatch struct {
	Posts   []*domain.Post
	HasMore bool
}

// CandidateCache keeps recent candidate fetches so refreshes and quick
// strategy switches do not hit the store again.
type CandidateCache interface {
	Get(key string) (CandidateBatch, bool)
	Add(key string, batch CandidateBatch)
}

// FeedMetrics abstracts prometheus metrics for feed serving.
type FeedMetrics interface {
	ObserveFeed(strategy string, duration time.Duration, posts int)
	RecordFeedError(strategy, reason string)
	RecordCursorReset(strategy string)
	RecordCandidateCache(hit bool)
}

// RankFeedInput contains the data needed to serve a feed page.
type RankFeedInput struct {
	ViewerID string
	Strategy string
	Cursor   string
	Limit    int
}

// RankFeedOutput contains one ranked page.
type RankFeedOutput struct {
	Strategy    string
	Posts       []domain.RankedPost
	NextCursor  string
	HasMore     bool
	CursorReset bool
}

// RankFeedUseCase serves personalized feed pages.
// it gathers the candidates and the viewer profile, then hands both to the
// selected strategy.
type RankFeedUseCase struct {
	registry     *domain.StrategyRegistry
	posts        domain.PostStore
	signals      domain.SignalStore
	cache        CandidateCache
	metrics      FeedMetrics
	config       FeedConfig
	timeProvider TimeProvider
	logger       *logging.Logger
}

// NewRankFeedUseCase creates a new RankFeedUseCase.
func NewRankFeedUseCase(
	registry *domain.StrategyRegistry,
	posts domain.PostStore,
	signals domain.SignalStore,
	config FeedConfig,
	logger *logging.Logger,
) *RankFeedUseCase {
	return &RankFeedUseCase{
		registry:     registry,
		posts:        posts,
		signals:      signals,
		config:       config,
		timeProvider: RealTime,
		logger:       logger.WithComponent("rank_feed"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *RankFeedUseCase) WithTimeProvider(tp TimeProvider) *RankFeedUseCase {
	uc.timeProvider = tp
	return uc
}

// WithCandidateCache sets the candidate cache.
func (uc *RankFeedUseCase) WithCandidateCache(c CandidateCache) *RankFeedUseCase {
	uc.cache = c
	return uc
}

// WithMetrics sets the metrics recorder for observability.
func (uc *RankFeedUseCase) WithMetrics(m FeedMetrics) *RankFeedUseCase {
	uc.metrics = m
	return uc
}

// Strategies lists the registered strategies.
func (uc *RankFeedUseCase) Strategies() []domain.StrategyInfo {
	return uc.registry.List()
}

// Execute serves one feed page.
func (uc *RankFeedUseCase) Execute(ctx context.Context, input RankFeedInput) (*RankFeedOutput, error) {
	start := time.Now()

	strategy, err := uc.registry.Lookup(input.Strategy)
	if err != nil {
		uc.recordError(input.Strategy, "unknown_strategy")
		return nil, err
	}
	name := strategy.Name()

	viewerID, err := domain.ParseUserID(input.ViewerID)
	if err != nil {
		uc.recordError(name, "invalid_viewer")
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	limit := domain.NormalizeLimit(input.Limit)

	var cursor *domain.Cursor
	cursorString := input.Cursor
	cursorReset := false
	if cursorString != "" {
		c, err := domain.DecodeCursor(cursorString)
		if err != nil {
			uc.logger.CursorRejected(name, viewerID.String())
			if uc.metrics != nil {
				uc.metrics.RecordCursorReset(name)
			}
			cursorString = ""
			cursorReset = true
		} else {
			cursor = &c
		}
	}

	now := uc.timeProvider()

	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	var (
		profile *domain.SignalProfile
		batch   CandidateBatch
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		profile = uc.loadProfile(gctx, viewerID)
		return nil
	})

	g.Go(func() error {
		b, err := uc.loadCandidates(gctx, viewerID, strategy, cursor, cursorString, limit, now)
		if err != nil {
			return err
		}
		batch = b
		return nil
	})

	if err := g.Wait(); err != nil {
		reason := "store"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		uc.recordError(name, reason)
		uc.logger.Error("feed request failed",
			"strategy", name,
			"viewer_id", viewerID.String(),
			"reason", reason,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}

	page := domain.RunStrategy(strategy, domain.FeedRequest{
		Candidates:    batch.Posts,
		Profile:       profile,
		Limit:         limit,
		Cursor:        cursorString,
		Now:           now,
		SourceHasMore: batch.HasMore,
	})

	if uc.metrics != nil {
		uc.metrics.ObserveFeed(name, time.Since(start), len(page.Posts))
	}
	uc.logger.FeedServed(name, viewerID.String(), len(page.Posts), len(batch.Posts), page.HasMore)

	return &RankFeedOutput{
		Strategy:    name,
		Posts:       page.Posts,
		NextCursor:  page.NextCursor,
		HasMore:     page.HasMore,
		CursorReset: cursorReset || page.CursorReset,
	}, nil
}

// loadProfile never fails: a store error degrades to the neutral profile.
func (uc *RankFeedUseCase) loadProfile(ctx context.Context, viewerID domain.UserID) *domain.SignalProfile {
	profile, err := uc.signals.FetchSignalProfile(ctx, viewerID)
	if err != nil || profile == nil {
		if err != nil {
			uc.logger.Warn("signal profile unavailable, using defaults",
				"viewer_id", viewerID.String(),
				"error", err.Error(),
			)
		}
		return domain.DefaultSignalProfile(viewerID)
	}
	return profile
}

func (uc *RankFeedUseCase) loadCandidates(
	ctx context.Context,
	viewerID domain.UserID,
	strategy domain.Strategy,
	cursor *domain.Cursor,
	cursorString string,
	limit int,
	now time.Time,
) (CandidateBatch, error) {
	fetchLimit := uc.config.candidateLimit(limit)
	key := candidateCacheKey(viewerID, strategy.Name(), cursorString, fetchLimit)

	if uc.cache != nil {
		b, ok := uc.cache.Get(key)
		if uc.metrics != nil {
			uc.metrics.RecordCandidateCache(ok)
		}
		if ok {
			return b, nil
		}
	}

	posts, hasMore, err := uc.posts.FetchCandidates(ctx, viewerID, strategy.CandidateFilter(), cursor, fetchLimit, now)
	if err != nil {
		return CandidateBatch{}, err
	}

	b := CandidateBatch{Posts: posts, HasMore: hasMore}
	if uc.cache != nil {
		uc.cache.Add(key, b)
	}
	return b, nil
}

func (uc *RankFeedUseCase) recordError(strategy, reason string) {
	if uc.metrics != nil {
		uc.metrics.RecordFeedError(strategy, reason)
	}
}

func candidateCacheKey(viewerID domain.UserID, strategy, cursor string, limit int) string {
	return fmt.Sprintf("%s|%s|%s|%d", viewerID.String(), strategy, cursor, limit)
}
