package domain

import "time"

const followingStrategyName = "following"

// FollowingStrategy shows posts from followed authors and joined communities,
// newest first, with no scoring at all.
type FollowingStrategy struct{}

func NewFollowingStrategy() *FollowingStrategy {
	return &FollowingStrategy{}
}

func (s *FollowingStrategy) Name() string { return followingStrategyName }

func (s *FollowingStrategy) Description() string {
	return "posts from people you follow and communities you joined, newest first"
}

func (s *FollowingStrategy) CandidateFilter() CandidateFilter {
	return CandidateFilter{FollowingOnly: true, IncludeMemberCommunities: true}
}

func (s *FollowingStrategy) Eligible(post *Post, profile *SignalProfile, _ time.Time) bool {
	if post == nil {
		return false
	}
	if post.IsFollowingAuthor {
		return true
	}
	id, ok := post.CommunityID()
	return ok && profile.IsMemberOf(id)
}

// Order keeps the window in feed time order. scores are left at zero.
func (s *FollowingStrategy) Order(window []*Post, _ *SignalProfile, _ time.Time) []RankedPost {
	sorted := SortChronological(window)
	out := make([]RankedPost, len(sorted))
	for i, p := range sorted {
		out[i] = RankedPost{Post: p}
	}
	return out
}
