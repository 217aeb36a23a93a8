package domain

import "time"

const homeStrategyName = "home"

// HomeStrategy is the default personalized feed: adaptive weights, per group
// ranking, then a ratio mix with a cap on same-group runs.
type HomeStrategy struct {
	mixing MixingStrategy
}

// NewHomeStrategy creates the home strategy with the standard mix.
func NewHomeStrategy() *HomeStrategy {
	return &HomeStrategy{mixing: HomeMixingStrategy()}
}

// WithMixing overrides the mixing configuration.
// an invalid configuration is ignored.
func (s *HomeStrategy) WithMixing(m MixingStrategy) *HomeStrategy {
	if m.Validate() == nil {
		s.mixing = m
	}
	return s
}

func (s *HomeStrategy) Name() string { return homeStrategyName }

func (s *HomeStrategy) Description() string {
	return "personalized mix of social, purchase, event and sponsored posts"
}

func (s *HomeStrategy) CandidateFilter() CandidateFilter {
	return CandidateFilter{}
}

// Eligible accepts every post whose mix group has a share of the feed.
func (s *HomeStrategy) Eligible(post *Post, _ *SignalProfile, _ time.Time) bool {
	return post != nil && s.mixing.Ratios[post.Category.MixGroup()] > 0
}

func (s *HomeStrategy) Order(window []*Post, profile *SignalProfile, now time.Time) []RankedPost {
	weights := ComputeWeights(profile)

	grouped := make(map[MixGroup][]*Post, len(mixGroupOrder))
	for _, p := range window {
		group := p.Category.MixGroup()
		if group == "" {
			continue
		}
		grouped[group] = append(grouped[group], p)
	}

	pools := make(map[MixGroup][]RankedPost, len(grouped))
	for group, posts := range grouped {
		pools[group] = RankPosts(posts, func(p *Post) float64 {
			return ScorePost(p, profile, weights, now)
		})
	}

	mixed := Mix(pools, s.mixing)
	for i := range mixed {
		mixed[i].PersonalizationScore = PersonalizationScore(mixed[i].Post, profile)
	}
	return mixed
}
