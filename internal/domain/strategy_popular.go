package domain

import (
	"math"
	"time"
)

const (
	popularStrategyName = "popular"

	// DefaultPopularWindow is how far back the popular feed looks.
	DefaultPopularWindow = 72 * time.Hour

	popularDecay         = 1.2
	authorSpacing        = 5
	eventDiversityWindow = 10
)

// PopularStrategy ranks recent non sponsored posts by raw engagement over
// time, then spreads authors and events apart.
type PopularStrategy struct {
	window time.Duration
}

// NewPopularStrategy creates the popular strategy.
// a non-positive window falls back to DefaultPopularWindow.
func NewPopularStrategy(window time.Duration) *PopularStrategy {
	if window <= 0 {
		window = DefaultPopularWindow
	}
	return &PopularStrategy{window: window}
}

func (s *PopularStrategy) Name() string { return popularStrategyName }

func (s *PopularStrategy) Description() string {
	return "most engaging posts of the last hours, sponsored content excluded"
}

func (s *PopularStrategy) CandidateFilter() CandidateFilter {
	cats := make([]Category, 0, len(AllCategories()))
	for _, c := range AllCategories() {
		if c != CategorySponsored {
			cats = append(cats, c)
		}
	}
	return CandidateFilter{
		Categories:      cats,
		TimeWindowHours: int(math.Ceil(s.window.Hours())),
	}
}

func (s *PopularStrategy) Eligible(post *Post, _ *SignalProfile, now time.Time) bool {
	if post == nil || post.Category == CategorySponsored || !post.Category.IsValid() {
		return false
	}
	return post.AgeHours(now) <= s.window.Hours()
}

func (s *PopularStrategy) Order(window []*Post, _ *SignalProfile, now time.Time) []RankedPost {
	ranked := RankPosts(window, func(p *Post) float64 {
		return PopularityScore(p, now)
	})
	return diversify(ranked)
}

// PopularityScore is (likes + 2 comments + 3 saves) / (hours + 1)^1.2.
func PopularityScore(post *Post, now time.Time) float64 {
	if post == nil {
		return 0
	}
	e := post.Engagement
	raw := float64(nonNegative(e.Likes)) +
		2*float64(nonNegative(e.Comments)) +
		3*float64(nonNegative(e.Saves))
	return raw / math.Pow(post.AgeHours(now)+1, popularDecay)
}

// diversify walks the ranking greedily. a post is held back while its author
// appeared in the last authorSpacing positions, or its event already appeared
// in the current block of eventDiversityWindow posts. held back posts are
// appended in rank order once nothing else fits, so the pass never drops one.
func diversify(ranked []RankedPost) []RankedPost {
	out := make([]RankedPost, 0, len(ranked))
	pending := append([]RankedPost(nil), ranked...)
	seenEvents := make(map[string]struct{})

	for len(pending) > 0 {
		if len(out)%eventDiversityWindow == 0 {
			clear(seenEvents)
		}

		pick := -1
		for i, rp := range pending {
			if recentAuthor(out, rp.Post.AuthorID) {
				continue
			}
			if id, ok := rp.Post.EventID(); ok {
				if _, seen := seenEvents[id]; seen {
					continue
				}
			}
			pick = i
			break
		}
		if pick < 0 {
			// nothing left satisfies the spacing. the tail of the window is
			// emitted in rank order with the spacing relaxed, so one author
			// or event may repeat back to back here.
			out = append(out, pending...)
			break
		}

		rp := pending[pick]
		out = append(out, rp)
		if id, ok := rp.Post.EventID(); ok {
			seenEvents[id] = struct{}{}
		}
		pending = append(pending[:pick], pending[pick+1:]...)
	}

	return out
}

func recentAuthor(out []RankedPost, author UserID) bool {
	from := max(0, len(out)-authorSpacing)
	for _, rp := range out[from:] {
		if rp.Post.AuthorID == author {
			return true
		}
	}
	return false
}
