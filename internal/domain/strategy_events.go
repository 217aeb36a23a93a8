package domain

import (
	"strings"
	"time"
	"unicode"
)

const (
	eventsStrategyName = "events"

	// eventsPurchaseAmplification boosts the purchase signal before weights
	// are derived, so event content ranks as if the viewer buys a lot.
	eventsPurchaseAmplification = 1.5
)

// eventKeywords mark a personal post as talking about an event.
// everyday words such as "live", "show" or "match" are left out.
var eventKeywords = map[string]struct{}{
	"event":      {},
	"events":     {},
	"concert":    {},
	"concerts":   {},
	"festival":   {},
	"festivals":  {},
	"ticket":     {},
	"tickets":    {},
	"gig":        {},
	"gigs":       {},
	"conference": {},
	"meetup":     {},
	"tour":       {},
}

// EventsStrategy focuses on purchases, event recommendations and personal
// posts that mention an event.
type EventsStrategy struct{}

func NewEventsStrategy() *EventsStrategy {
	return &EventsStrategy{}
}

func (s *EventsStrategy) Name() string { return eventsStrategyName }

func (s *EventsStrategy) Description() string {
	return "purchases, event recommendations and posts about events"
}

func (s *EventsStrategy) CandidateFilter() CandidateFilter {
	return CandidateFilter{
		Categories: []Category{CategoryPurchase, CategoryEventRecommendation, CategoryPersonal},
	}
}

func (s *EventsStrategy) Eligible(post *Post, _ *SignalProfile, _ time.Time) bool {
	if post == nil {
		return false
	}
	switch post.Category {
	case CategoryPurchase, CategoryEventRecommendation:
		return true
	case CategoryPersonal:
		return MentionsEvent(post.Text())
	default:
		return false
	}
}

func (s *EventsStrategy) Order(window []*Post, profile *SignalProfile, now time.Time) []RankedPost {
	amplified := profile.WithAmplifiedPurchaseSignal(eventsPurchaseAmplification)
	weights := ComputeWeights(amplified)
	return RankPosts(window, func(p *Post) float64 {
		return ScorePost(p, amplified, weights, now)
	})
}

// MentionsEvent reports whether text contains an event keyword as a word.
// matching is case insensitive.
func MentionsEvent(text string) bool {
	if text == "" {
		return false
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if _, ok := eventKeywords[w]; ok {
			return true
		}
	}
	return false
}
