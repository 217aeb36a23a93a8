package domain

import (
	"fmt"
	"time"
)

// pagination limits applied when a request carries none or too many.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// CandidateFilter tells the post store which candidates a strategy can use.
// zero values mean "no restriction".
type CandidateFilter struct {
	// Categories is an allowlist. empty allows every category.
	Categories []Category

	// FollowingOnly restricts candidates to followed authors.
	FollowingOnly bool

	// IncludeMemberCommunities widens FollowingOnly with posts from
	// communities the viewer belongs to.
	IncludeMemberCommunities bool

	// TimeWindowHours drops candidates older than this many hours.
	TimeWindowHours int
}

// Strategy is one named feed variant.
// implementations are stateless and safe for concurrent use.
type Strategy interface {
	Name() string
	Description() string

	// CandidateFilter is what the strategy asks of the post store.
	CandidateFilter() CandidateFilter

	// Eligible reports whether a candidate may appear in this feed.
	Eligible(post *Post, profile *SignalProfile, now time.Time) bool

	// Order arranges one page worth of eligible posts.
	Order(window []*Post, profile *SignalProfile, now time.Time) []RankedPost
}

// StrategyInfo describes a registered strategy for discovery.
type StrategyInfo struct {
	Name        string
	Description string
}

// FeedRequest is the input of one ranking pass.
// all data is provided upfront - no side effects or time acquisition inside.
type FeedRequest struct {
	Candidates []*Post

	// Profile may be nil, the neutral profile is used then.
	Profile *SignalProfile

	// Limit is the page size, normalized to [1, MaxPageLimit].
	Limit int

	// Cursor is the opaque cursor from the previous page, empty for the first.
	Cursor string

	// Now is the reference instant for ages and time windows.
	Now time.Time

	// SourceHasMore is set when Candidates is itself one page of a larger
	// store, so paging continues past the last candidate.
	SourceHasMore bool
}

// FeedPage is the output of one ranking pass.
type FeedPage struct {
	Strategy string
	Posts    []RankedPost

	// NextCursor points at the oldest post this page consumed.
	// empty when there is nothing left to page through.
	NextCursor string
	HasMore    bool

	// CursorReset is set when the request cursor was invalid and the
	// page was built from the beginning.
	CursorReset bool
}

// StrategyRegistry is the set of strategies callers select from by name.
// it is built once at startup and read-only afterwards.
type StrategyRegistry struct {
	strategies map[string]Strategy
	order      []string
}

// NewStrategyRegistry creates a registry from the given strategies.
// later strategies with a duplicate name replace earlier ones.
func NewStrategyRegistry(strategies ...Strategy) *StrategyRegistry {
	r := &StrategyRegistry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		if _, exists := r.strategies[s.Name()]; !exists {
			r.order = append(r.order, s.Name())
		}
		r.strategies[s.Name()] = s
	}
	return r
}

// NewDefaultStrategyRegistry registers home, popular, following and events.
func NewDefaultStrategyRegistry(popularWindow time.Duration) *StrategyRegistry {
	return NewStrategyRegistry(
		NewHomeStrategy(),
		NewPopularStrategy(popularWindow),
		NewFollowingStrategy(),
		NewEventsStrategy(),
	)
}

// Lookup returns the strategy registered under name.
func (r *StrategyRegistry) Lookup(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// List returns every strategy in registration order.
func (r *StrategyRegistry) List() []StrategyInfo {
	out := make([]StrategyInfo, 0, len(r.order))
	for _, name := range r.order {
		s := r.strategies[name]
		out = append(out, StrategyInfo{Name: s.Name(), Description: s.Description()})
	}
	return out
}

// Run executes the named strategy over the request.
// the only error is ErrUnknownStrategy; an invalid cursor restarts paging.
func (r *StrategyRegistry) Run(name string, req FeedRequest) (FeedPage, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return FeedPage{}, err
	}
	return RunStrategy(s, req), nil
}

// RunStrategy executes one ranking pass.
//
// pipeline:
// 1. keep eligible candidates, in feed time order
// 2. drop everything at or before the cursor
// 3. take the newest Limit posts as this page's window
// 4. let the strategy order the window; when it leaves posts out, shrink
// the window to the longest newest-first prefix it orders in full
// 5. the next cursor is the oldest post of the window, or the oldest
// candidate looked at when the window is short but the store has more
//
// windows of successive pages are disjoint and together cover every
// eligible candidate, whatever order each strategy uses inside a window.
// posts a strategy holds back simply open the next window.
func RunStrategy(s Strategy, req FeedRequest) FeedPage {
	page := FeedPage{Strategy: s.Name(), Posts: []RankedPost{}}

	profile := req.Profile
	if profile == nil {
		profile = DefaultSignalProfile(UserID{})
	}
	limit := NormalizeLimit(req.Limit)

	var cursor *Cursor
	if req.Cursor != "" {
		c, err := DecodeCursor(req.Cursor)
		if err != nil {
			page.CursorReset = true
		} else {
			cursor = &c
		}
	}

	admitted := make([]*Post, 0, len(req.Candidates))
	eligible := make([]*Post, 0, len(req.Candidates))
	for _, p := range SortChronological(req.Candidates) {
		if cursor != nil && !cursor.Admits(p) {
			continue
		}
		admitted = append(admitted, p)
		if s.Eligible(p, profile, req.Now) {
			eligible = append(eligible, p)
		}
	}

	window := eligible[:min(limit, len(eligible))]
	if len(window) > 0 {
		window, page.Posts = orderWindow(s, window, profile, req.Now)
	}
	truncated := len(window) < len(eligible)

	switch {
	case truncated:
		page.HasMore = true
		page.NextCursor = window[len(window)-1].CursorKey().String()
	case req.SourceHasMore && len(admitted) > 0:
		// nothing eligible was held back here, continue after the oldest
		// candidate this pass looked at
		page.HasMore = true
		page.NextCursor = admitted[len(admitted)-1].CursorKey().String()
	}

	return page
}

// orderWindow returns the longest prefix of window that s orders without
// leaving a post out, together with that ordering. a one post prefix is the
// floor; when even that is dropped the full ordering is returned as is and
// the dropped posts are lost.
func orderWindow(s Strategy, window []*Post, profile *SignalProfile, now time.Time) ([]*Post, []RankedPost) {
	full := s.Order(window, profile, now)
	if len(full) >= len(window) {
		return window, full
	}

	for n := len(window) - 1; n > 0; n-- {
		if ordered := s.Order(window[:n], profile, now); len(ordered) >= n {
			return window[:n], ordered
		}
	}
	return window, full
}

// NormalizeLimit clamps a requested page size.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}
