package domain

import (
	"math"
	"testing"
	"time"
)

func TestScorePost_FreshPurchaseWithoutEngagement(t *testing.T) {
	post := testPost("p1", CategoryPurchase, 0)

	score := ScorePost(post, DefaultSignalProfile(NewUserID()), DefaultRankingWeights(), testNow)

	want := 2.0 / math.Pow(2, 1.4)
	if math.Abs(score-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, score)
	}
	if math.Abs(score-0.758) > 0.001 {
		t.Errorf("expected about 0.758, got %v", score)
	}
}

func TestScorePost_EngagementIsWeightedAverage(t *testing.T) {
	w := DefaultRankingWeights()
	profile := DefaultSignalProfile(NewUserID())

	few := testPost("few", CategoryActivity, 0)
	few.Engagement = Engagement{Shares: 1}
	many := testPost("many", CategoryActivity, 0)
	many.Engagement = Engagement{Likes: 1000}

	// a single share outweighs a thousand likes: 3.0 vs 1.0 average
	if ScorePost(few, profile, w, testNow) <= ScorePost(many, profile, w, testNow) {
		t.Error("expected share-heavy post to outscore like-heavy post")
	}
}

func TestScorePost_Boosts(t *testing.T) {
	w := DefaultRankingWeights()
	community := NewCommunityID()

	profile := DefaultSignalProfile(NewUserID())
	profile.FavoriteCategories["music"] = struct{}{}
	profile.CommunityMemberships[community] = struct{}{}
	profile.Location = &LocationPreference{Latitude: 1, Longitude: 2, RadiusKm: 10}

	// the same post, unflagged, scored for a viewer without any signal
	neutral := &SignalProfile{}
	base := func(p *Post) float64 {
		cp := *p
		cp.IsFollowingAuthor = false
		return ScorePost(&cp, neutral, w, testNow)
	}

	tests := []struct {
		name  string
		post  *Post
		boost float64
	}{
		{
			name: "following author",
			post: func() *Post {
				p := testPost("a", CategoryActivity, time.Hour)
				p.IsFollowingAuthor = true
				return p
			}(),
			boost: w.FollowingBoost,
		},
		{
			name: "favorite event category and location",
			post: func() *Post {
				p := testPost("b", CategoryPurchase, time.Hour)
				p.Payload = PurchasePayload{EventID: "e1", EventCategory: "music"}
				return p
			}(),
			boost: w.CategoryBoost + w.LocationBoost*0.5,
		},
		{
			name: "member community",
			post: func() *Post {
				p := testPost("c", CategoryCommunity, time.Hour)
				p.Payload = CommunityPayload{CommunityID: community}
				return p
			}(),
			boost: 0.8 * w.FollowingBoost,
		},
		{
			name: "peak hour",
			post: func() *Post {
				p := testPost("d", CategoryActivity, 0)
				p.CreatedAt = time.Date(2026, 3, 10, 19, 30, 0, 0, time.UTC)
				return p
			}(),
			boost: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScorePost(tt.post, profile, w, testNow)
			want := base(tt.post) + tt.boost
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestScorePost_Penalties(t *testing.T) {
	w := DefaultRankingWeights()
	profile := DefaultSignalProfile(NewUserID())

	clean := testPost("clean", CategoryPurchase, 0)
	clean.Engagement = Engagement{Shares: 3}
	reported := testPost("reported", CategoryPurchase, 0)
	reported.Engagement = Engagement{Shares: 3, Reports: 4}

	diff := ScorePost(clean, profile, w, testNow) - ScorePost(reported, profile, w, testNow)
	if want := math.Log(5) * 0.5; math.Abs(diff-want) > 1e-9 {
		t.Errorf("expected report penalty %v, got %v", want, diff)
	}

	stale := testPost("stale", CategoryPurchase, 30*time.Hour)
	stale.Engagement = Engagement{Likes: 1}
	lively := testPost("lively", CategoryPurchase, 30*time.Hour)
	lively.Engagement = Engagement{Likes: 2}

	// both have the same weighted average, only the staleness penalty differs
	if ScorePost(stale, profile, w, testNow) != 0 {
		t.Errorf("stale post should be clamped to zero, got %v", ScorePost(stale, profile, w, testNow))
	}
	if ScorePost(lively, profile, w, testNow) <= 0 {
		t.Error("lively post should keep a positive score")
	}
}

func TestScorePost_NeverNegative(t *testing.T) {
	w := ComputeWeights(&SignalProfile{LikesOnPurchases: 3, LikesOnSocial: 7})
	profile := DefaultSignalProfile(NewUserID())

	for i, p := range testCandidates(60) {
		p.Engagement.Reports = int64(i * 10)
		p.CreatedAt = testNow.Add(-time.Duration(i) * 7 * time.Hour)
		if s := ScorePost(p, profile, w, testNow); s < 0 || math.IsNaN(s) {
			t.Errorf("post %s scored %v", p.ID, s)
		}
	}

	weird := testPost("weird", Category("unknown"), -time.Hour)
	weird.Engagement = Engagement{Likes: -5, Reports: -2}
	if s := ScorePost(weird, nil, w, testNow); s < 0 {
		t.Errorf("malformed post scored %v", s)
	}
	if ScorePost(nil, profile, w, testNow) != 0 {
		t.Error("nil post should score zero")
	}
}

func TestScorePost_MismatchedPayloadIsIgnored(t *testing.T) {
	profile := DefaultSignalProfile(NewUserID())
	profile.FavoriteCategories["music"] = struct{}{}

	plain := testPost("plain", CategoryPurchase, time.Hour)
	broken := testPost("broken", CategoryPurchase, time.Hour)
	broken.Payload = EventRecommendationPayload{EventID: "e", EventCategory: "music"}

	w := DefaultRankingWeights()
	if ScorePost(broken, profile, w, testNow) != ScorePost(plain, profile, w, testNow) {
		t.Error("a payload from another category should be treated as empty")
	}
}

func TestPersonalizationScore(t *testing.T) {
	community := NewCommunityID()
	profile := DefaultSignalProfile(NewUserID())
	profile.FavoriteCategories["music"] = struct{}{}
	profile.CommunityMemberships[community] = struct{}{}

	followed := testPost("a", CategoryPurchase, 0)
	followed.IsFollowingAuthor = true
	followed.Payload = PurchasePayload{EventCategory: "music"}

	member := testPost("b", CategoryCommunity, 0)
	member.Payload = CommunityPayload{CommunityID: community}

	if got := PersonalizationScore(followed, profile); got != 3.5 {
		t.Errorf("expected 3.5, got %v", got)
	}
	if got := PersonalizationScore(member, profile); got != 1.8 {
		t.Errorf("expected 1.8, got %v", got)
	}
	if got := PersonalizationScore(testPost("c", CategorySponsored, 0), profile); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestRankPosts_TieBreak(t *testing.T) {
	older := testPost("z", CategoryPersonal, time.Hour)
	newerLow := testPost("a", CategoryPersonal, 0)
	newerHigh := testPost("b", CategoryPersonal, 0)

	ranked := RankPosts([]*Post{older, newerLow, nil, newerHigh}, func(*Post) float64 { return 1 })

	got := postIDs(ranked)
	want := []PostID{"b", "a", "z"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
