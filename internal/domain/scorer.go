package domain

import (
	"math"
	"sort"
	"time"
)

// scoring constants that are not part of the adaptive weights.
const (
	// freshnessFloorHours keeps just-created posts from dividing by ~0.
	freshnessFloorHours = 2.0

	locationBoostShare     = 0.5
	communityBoostShare    = 0.8
	peakHourBoost          = 0.3
	reportPenaltyScale     = 0.5
	stalenessPenalty       = 0.3
	stalenessAgeHours      = 24.0
	stalenessMinEngagement = 2
)

// RankedPost is a post with the scores computed for it in one pass.
type RankedPost struct {
	Post  *Post
	Score float64

	// PersonalizationScore is informational, it never affects ordering.
	PersonalizationScore float64
}

// ScorePost computes the ranking score of a single post.
// this is a pure function - now is passed in, nothing is read from the clock.
//
// algorithm:
// 1. base = category weight
// 2. engagement = weighted average of the engagement counters
// 3. score = (base + engagement) / (hours + 2)^decay
// 4. add personalization boosts (following, favorite category, location,
// community membership, peak hour)
// 5. subtract quality penalties (reports, staleness)
// 6. clamp to non-negative
//
// missing payload fields count as empty, a malformed post never fails.
func ScorePost(post *Post, profile *SignalProfile, w RankingWeights, now time.Time) float64 {
	if post == nil {
		return 0
	}

	base := w.ForCategory(post.Category)

	e := post.Engagement
	likes := float64(nonNegative(e.Likes))
	comments := float64(nonNegative(e.Comments))
	saves := float64(nonNegative(e.Saves))
	shares := float64(nonNegative(e.Shares))

	total := math.Max(1, float64(e.Total()))
	engagement := (likes*w.Like + comments*w.Comment + saves*w.Save + shares*w.Share) / total

	hours := post.AgeHours(now)
	freshness := 1 / math.Pow(hours+freshnessFloorHours, w.FreshnessDecay)

	score := (base + engagement) * freshness
	score += personalizationBoost(post, profile, w)
	score -= qualityPenalty(post, hours)

	if score < 0 || math.IsNaN(score) {
		return 0
	}
	return score
}

func personalizationBoost(post *Post, profile *SignalProfile, w RankingWeights) float64 {
	var boost float64

	if post.IsFollowingAuthor {
		boost += w.FollowingBoost
	}

	if post.Category.IsLocationRelevant() {
		if category, ok := post.EventCategory(); ok && profile.LikesFavoriteCategory(category) {
			boost += w.CategoryBoost
		}
		// placeholder until posts carry coordinates
		if profile.HasLocation() {
			boost += w.LocationBoost * locationBoostShare
		}
	}

	if id, ok := post.CommunityID(); ok && profile.IsMemberOf(id) {
		boost += communityBoostShare * w.FollowingBoost
	}

	if profile.IsPeakHour(post.CreatedHour()) {
		boost += peakHourBoost
	}

	return boost
}

func qualityPenalty(post *Post, ageHours float64) float64 {
	var penalty float64

	if reports := nonNegative(post.Engagement.Reports); reports > 0 {
		penalty += math.Log(float64(reports)+1) * reportPenaltyScale
	}

	early := nonNegative(post.Engagement.Likes) + nonNegative(post.Engagement.Comments)
	if ageHours > stalenessAgeHours && early < stalenessMinEngagement {
		penalty += stalenessPenalty
	}

	return penalty
}

// PersonalizationScore is the secondary score attached by the home feed.
// it explains why a post is relevant and is used for display only.
func PersonalizationScore(post *Post, profile *SignalProfile) float64 {
	if post == nil {
		return 0
	}

	var score float64
	if post.IsFollowingAuthor {
		score += 2.0
	}
	if category, ok := post.EventCategory(); ok && profile.LikesFavoriteCategory(category) {
		score += 1.5
	}
	if id, ok := post.CommunityID(); ok && profile.IsMemberOf(id) {
		score += 1.8
	}
	return score
}

// RankPosts scores posts and sorts them by the pool order:
// score descending, then most recent first, then id descending.
// the input slice is not modified.
func RankPosts(posts []*Post, score func(*Post) float64) []RankedPost {
	ranked := make([]RankedPost, 0, len(posts))
	for _, p := range posts {
		if p == nil {
			continue
		}
		ranked = append(ranked, RankedPost{Post: p, Score: score(p)})
	}
	SortRanked(ranked)
	return ranked
}

// SortRanked sorts in place using the pool order.
func SortRanked(ranked []RankedPost) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return ChronologicallyBefore(a.Post, b.Post)
	})
}

// ChronologicallyBefore reports whether a comes before b in feed time
// order: newer first, ties broken by id descending. this is the same total
// order cursors use.
func ChronologicallyBefore(a, b *Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortChronological returns a copy of posts in feed time order.
func SortChronological(posts []*Post) []*Post {
	out := make([]*Post, 0, len(posts))
	for _, p := range posts {
		if p != nil {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ChronologicallyBefore(out[i], out[j])
	})
	return out
}
