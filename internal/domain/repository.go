package domain

import (
	"context"
	"time"
)

// PostStore provides candidate posts for ranking.
// the store owns storage layout, the engine only sees posts.
type PostStore interface {
	// FetchCandidates returns up to limit posts matching filter, strictly after
	// cursor in feed time order, newest first. the bool reports whether the
	// store holds more matching posts past the returned ones.
	// viewer relative fields (IsFollowingAuthor) are filled for viewerID.
	FetchCandidates(
		ctx context.Context,
		viewerID UserID,
		filter CandidateFilter,
		cursor *Cursor,
		limit int,
		now time.Time,
	) ([]*Post, bool, error)

	// FindByIDs loads posts by id for viewerID. missing ids are skipped.
	FindByIDs(ctx context.Context, viewerID UserID, ids []PostID) ([]*Post, error)

	// Exists reports whether a post with the given id exists.
	Exists(ctx context.Context, id PostID) (bool, error)
}

// SignalStore provides per-viewer behavior aggregates.
type SignalStore interface {
	// FetchSignalProfile returns the profile of viewerID. viewers without
	// history get DefaultSignalProfile, never ErrNotFound.
	FetchSignalProfile(ctx context.Context, viewerID UserID) (*SignalProfile, error)
}

// InteractionRepository persists viewer interactions and the engagement
// counters derived from them.
type InteractionRepository interface {
	// SaveBatch stores interactions in one round trip and returns how many
	// rows were written.
	SaveBatch(ctx context.Context, batch []*Interaction) (int64, error)

	// ApplyEngagement adds the deltas to the stored post counters.
	ApplyEngagement(ctx context.Context, deltas map[PostID]Engagement) error
}

// TrendingEntry is one position of the trending board.
type TrendingEntry struct {
	PostID PostID
	Score  float64
}

// TrendingBoard keeps a running interaction score per post.
type TrendingBoard interface {
	Increment(ctx context.Context, scores map[PostID]float64) error
	Top(ctx context.Context, n int) ([]TrendingEntry, error)
}
