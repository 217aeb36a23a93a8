package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestStrategyRegistry_List(t *testing.T) {
	r := NewDefaultStrategyRegistry(0)

	list := r.List()

	want := []string{"home", "popular", "following", "events"}
	if len(list) != len(want) {
		t.Fatalf("expected %d strategies, got %d", len(want), len(list))
	}
	for i, info := range list {
		if info.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], info.Name)
		}
		if info.Description == "" {
			t.Errorf("%s has no description", info.Name)
		}
	}
}

func TestStrategyRegistry_UnknownStrategy(t *testing.T) {
	r := NewDefaultStrategyRegistry(0)

	if _, err := r.Lookup("trending"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
	if _, err := r.Run("", FeedRequest{Now: testNow}); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestStrategyRegistry_DuplicateNameReplaces(t *testing.T) {
	custom := NewPopularStrategy(time.Hour)
	r := NewStrategyRegistry(NewPopularStrategy(0), custom)

	s, err := r.Lookup("popular")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != custom {
		t.Error("expected the later strategy to win")
	}
	if len(r.List()) != 1 {
		t.Errorf("expected one entry, got %d", len(r.List()))
	}
}

func TestFollowingStrategy_OnlyFollowedAuthors(t *testing.T) {
	var posts []*Post
	for i := 0; i < 5; i++ {
		p := testPost(fmt.Sprintf("p%d", i), CategoryPurchase, time.Duration(i)*time.Hour)
		p.Engagement = Engagement{Likes: int64(100 * i)}
		posts = append(posts, p)
	}
	posts[1].IsFollowingAuthor = true
	posts[3].IsFollowingAuthor = true

	page, err := NewDefaultStrategyRegistry(0).Run("following", FeedRequest{
		Candidates: []*Post{posts[3], posts[0], posts[4], posts[1], posts[2]},
		Now:        testNow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := postIDs(page.Posts)
	if len(got) != 2 || got[0] != "p1" || got[1] != "p3" {
		t.Errorf("expected [p1 p3], got %v", got)
	}
	for _, rp := range page.Posts {
		if rp.Score != 0 {
			t.Errorf("following feed should not score, got %v", rp.Score)
		}
	}
	if page.HasMore || page.NextCursor != "" {
		t.Error("single page should not report more")
	}
}

func TestFollowingStrategy_IncludesMemberCommunities(t *testing.T) {
	member := NewCommunityID()
	profile := DefaultSignalProfile(NewUserID())
	profile.CommunityMemberships[member] = struct{}{}

	joined := testPost("joined", CategoryCommunity, time.Hour)
	joined.Payload = CommunityPayload{CommunityID: member}
	other := testPost("other", CategoryCommunity, 0)
	other.Payload = CommunityPayload{CommunityID: NewCommunityID()}

	page := RunStrategy(NewFollowingStrategy(), FeedRequest{
		Candidates: []*Post{joined, other},
		Profile:    profile,
		Now:        testNow,
	})

	if got := postIDs(page.Posts); len(got) != 1 || got[0] != "joined" {
		t.Errorf("expected [joined], got %v", got)
	}
}

func TestRunStrategy_Deterministic(t *testing.T) {
	profile := DefaultSignalProfile(NewUserID())
	profile.LikesOnPurchases = 30
	profile.FavoriteCategories["music"] = struct{}{}
	candidates := testCandidates(80)

	r := NewDefaultStrategyRegistry(0)
	for _, info := range r.List() {
		t.Run(info.Name, func(t *testing.T) {
			req := FeedRequest{Candidates: candidates, Profile: profile, Limit: 25, Now: testNow}
			first, _ := r.Run(info.Name, req)
			second, _ := r.Run(info.Name, req)

			if fmt.Sprintf("%+v", first) != fmt.Sprintf("%+v", second) {
				t.Error("repeated runs produced different pages")
			}
		})
	}
}

func TestRunStrategy_FollowingPaginationIsComplete(t *testing.T) {
	candidates := testCandidates(47)
	// give two posts the same instant to exercise the id tie-break
	candidates[9].CreatedAt = candidates[8].CreatedAt

	var single []*Post
	for _, p := range SortChronological(candidates) {
		if p.IsFollowingAuthor {
			single = append(single, p)
		}
	}

	paged := collectPages(t, NewFollowingStrategy(), candidates, 3)

	if len(paged) != len(single) {
		t.Fatalf("expected %d posts across pages, got %d", len(single), len(paged))
	}
	for i := range single {
		if paged[i] != single[i].ID {
			t.Fatalf("position %d: expected %s, got %s", i, single[i].ID, paged[i])
		}
	}
}

func TestRunStrategy_PagesAreDisjoint(t *testing.T) {
	candidates := testCandidates(90)

	tests := []struct {
		strategy Strategy
		complete bool
	}{
		{NewHomeStrategy(), true},
		{NewPopularStrategy(0), true},
		{NewEventsStrategy(), true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.Name(), func(t *testing.T) {
			paged := collectPages(t, tt.strategy, candidates, 7)

			seen := map[PostID]bool{}
			for _, id := range paged {
				if seen[id] {
					t.Fatalf("post %s returned twice", id)
				}
				seen[id] = true
			}

			if !tt.complete {
				return
			}
			for _, p := range candidates {
				if eligible := tt.strategy.Eligible(p, nil, testNow); eligible != seen[p.ID] {
					t.Errorf("post %s: eligible=%v seen=%v", p.ID, eligible, seen[p.ID])
				}
			}
		})
	}
}

func TestRunStrategy_HomeResurfacesHeldBackPosts(t *testing.T) {
	social := make([]*Post, 40)
	for i := range social {
		social[i] = testPost(fmt.Sprintf("s%02d", i), CategoryPersonal, time.Duration(i)*time.Minute)
		social[i].Engagement.Likes = int64(i % 6)
	}
	mostlySocial := append(testCandidates(12), social...)

	tests := []struct {
		name       string
		candidates []*Post
		limit      int
	}{
		{"only social posts", social, 20},
		{"mostly social posts", mostlySocial, 20},
		{"small pages", testCandidates(50), 4},
		{"single post pages", testCandidates(15), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHomeStrategy()
			paged := collectPages(t, s, tt.candidates, tt.limit)

			seen := map[PostID]int{}
			for _, id := range paged {
				seen[id]++
			}
			for _, p := range tt.candidates {
				want := 0
				if s.Eligible(p, nil, testNow) {
					want = 1
				}
				if seen[p.ID] != want {
					t.Errorf("post %s emitted %d times, expected %d", p.ID, seen[p.ID], want)
				}
			}
		})
	}
}

func TestRunStrategy_HomePagesKeepRunCap(t *testing.T) {
	social := make([]*Post, 30)
	for i := range social {
		social[i] = testPost(fmt.Sprintf("s%02d", i), CategoryCommunity, time.Duration(i)*time.Minute)
	}

	page := RunStrategy(NewHomeStrategy(), FeedRequest{Candidates: social, Limit: 20, Now: testNow})

	if len(page.Posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(page.Posts))
	}
	if !page.HasMore {
		t.Fatal("expected more pages")
	}
	// the page is the newest three, so the cursor sits right after them
	for i, rp := range page.Posts {
		if rp.Post.ID != PostID(fmt.Sprintf("s%02d", i)) {
			t.Errorf("position %d: unexpected post %s", i, rp.Post.ID)
		}
	}
	if want := social[2].CursorKey().String(); page.NextCursor != want {
		t.Errorf("expected cursor after s02, got %s", page.NextCursor)
	}
}

func collectPages(t *testing.T, s Strategy, candidates []*Post, limit int) []PostID {
	t.Helper()

	var ids []PostID
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > len(candidates)+1 {
			t.Fatal("pagination did not terminate")
		}
		page := RunStrategy(s, FeedRequest{Candidates: candidates, Limit: limit, Cursor: cursor, Now: testNow})
		if len(page.Posts) > limit {
			t.Fatalf("page of %d posts exceeds limit %d", len(page.Posts), limit)
		}
		ids = append(ids, postIDs(page.Posts)...)
		if !page.HasMore {
			return ids
		}
		cursor = page.NextCursor
	}
}

func TestRunStrategy_InvalidCursorRestarts(t *testing.T) {
	candidates := testCandidates(20)
	s := NewFollowingStrategy()

	fresh := RunStrategy(s, FeedRequest{Candidates: candidates, Limit: 3, Now: testNow})
	stale := RunStrategy(s, FeedRequest{Candidates: candidates, Limit: 3, Cursor: "garbage", Now: testNow})

	if !stale.CursorReset {
		t.Error("expected CursorReset")
	}
	if fresh.CursorReset {
		t.Error("first page should not report a reset")
	}
	if fmt.Sprint(postIDs(fresh.Posts)) != fmt.Sprint(postIDs(stale.Posts)) {
		t.Error("invalid cursor should yield the first page")
	}
}

func TestRunStrategy_EmptyCandidates(t *testing.T) {
	for _, info := range NewDefaultStrategyRegistry(0).List() {
		page, err := NewDefaultStrategyRegistry(0).Run(info.Name, FeedRequest{Now: testNow})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", info.Name, err)
		}
		if page.Posts == nil || len(page.Posts) != 0 || page.HasMore || page.NextCursor != "" {
			t.Errorf("%s: expected empty final page, got %+v", info.Name, page)
		}
	}
}

func TestRunStrategy_SourceHasMoreContinuesPastIneligible(t *testing.T) {
	a := testPost("a", CategoryPurchase, time.Minute)
	b := testPost("b", CategoryPurchase, 2*time.Minute)

	page := RunStrategy(NewFollowingStrategy(), FeedRequest{
		Candidates:    []*Post{a, b},
		SourceHasMore: true,
		Now:           testNow,
	})

	if len(page.Posts) != 0 || !page.HasMore {
		t.Fatalf("expected an empty page with more to come, got %+v", page)
	}
	c, err := DecodeCursor(page.NextCursor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != "b" {
		t.Errorf("expected cursor at the oldest candidate, got %s", c.ID)
	}
}

func TestRunStrategy_LimitIsNormalized(t *testing.T) {
	candidates := testCandidates(150)
	for _, p := range candidates {
		p.IsFollowingAuthor = true
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultPageLimit},
		{-3, DefaultPageLimit},
		{5, 5},
		{1000, MaxPageLimit},
	}

	for _, tt := range tests {
		page := RunStrategy(NewFollowingStrategy(), FeedRequest{Candidates: candidates, Limit: tt.limit, Now: testNow})
		if len(page.Posts) != tt.want {
			t.Errorf("limit %d: expected %d posts, got %d", tt.limit, tt.want, len(page.Posts))
		}
	}
}

func TestHomeStrategy_MixesAndAnnotates(t *testing.T) {
	profile := DefaultSignalProfile(NewUserID())
	page := RunStrategy(NewHomeStrategy(), FeedRequest{
		Candidates: testCandidates(60),
		Profile:    profile,
		Limit:      40,
		Now:        testNow,
	})

	if len(page.Posts) == 0 {
		t.Fatal("expected posts")
	}
	if run := maxRun(page.Posts); run > 3 {
		t.Errorf("run of %d same-group posts", run)
	}
	for _, rp := range page.Posts {
		want := PersonalizationScore(rp.Post, profile)
		if rp.PersonalizationScore != want {
			t.Errorf("post %s: expected personalization %v, got %v", rp.Post.ID, want, rp.PersonalizationScore)
		}
	}
}

func TestHomeStrategy_WithMixingIgnoresInvalid(t *testing.T) {
	s := NewHomeStrategy().WithMixing(MixingStrategy{})
	if s.mixing.MaxConsecutiveSameCategory != 3 {
		t.Error("invalid mixing config should be ignored")
	}
}

func TestPopularStrategy_Eligibility(t *testing.T) {
	s := NewPopularStrategy(0)

	tests := []struct {
		name string
		post *Post
		want bool
	}{
		{"recent purchase", testPost("a", CategoryPurchase, time.Hour), true},
		{"sponsored", testPost("b", CategorySponsored, time.Hour), false},
		{"edge of window", testPost("c", CategoryPersonal, 72*time.Hour), true},
		{"too old", testPost("d", CategoryPersonal, 73*time.Hour), false},
		{"unknown category", testPost("e", Category("x"), time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Eligible(tt.post, nil, testNow); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPopularityScore(t *testing.T) {
	p := testPost("a", CategoryPersonal, 3*time.Hour)
	p.Engagement = Engagement{Likes: 4, Comments: 2, Saves: 1, Shares: 100}

	// shares do not count
	want := (4 + 2*2 + 3*1) / math.Pow(3+1, 1.2)
	if got := PopularityScore(p, testNow); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPopularStrategy_SpreadsAuthors(t *testing.T) {
	author := NewUserID()
	var posts []*Post
	for i := 0; i < 4; i++ {
		p := testPost(fmt.Sprintf("hot%d", i), CategoryPersonal, time.Duration(i)*time.Minute)
		p.AuthorID = author
		p.Engagement = Engagement{Likes: 1000}
		posts = append(posts, p)
	}
	for i := 0; i < 16; i++ {
		p := testPost(fmt.Sprintf("cold%d", i), CategoryPersonal, time.Duration(10+i)*time.Minute)
		p.Engagement = Engagement{Likes: int64(20 - i)}
		posts = append(posts, p)
	}

	out := NewPopularStrategy(0).Order(posts, nil, testNow)

	if len(out) != len(posts) {
		t.Fatalf("diversity pass dropped posts: %d of %d", len(out), len(posts))
	}
	last := -authorSpacing - 1
	for i, rp := range out {
		if rp.Post.AuthorID != author {
			continue
		}
		if i-last <= authorSpacing {
			t.Errorf("author repeated at %d after %d", i, last)
		}
		last = i
	}
}

func TestPopularStrategy_RelaxesSpacingAtWindowTail(t *testing.T) {
	author := NewUserID()
	var posts []*Post
	for i := 0; i < 3; i++ {
		p := testPost(fmt.Sprintf("a%d", i), CategoryPersonal, time.Duration(i)*time.Minute)
		p.AuthorID = author
		p.Engagement = Engagement{Likes: int64(100 - 10*i)}
		posts = append(posts, p)
	}
	other := testPost("b", CategoryPersonal, 5*time.Minute)
	other.Engagement = Engagement{Likes: 10}
	posts = append(posts, other)

	out := NewPopularStrategy(0).Order(posts, nil, testNow)

	// once only a0's author is left, the rest follows in rank order
	want := []PostID{"a0", "b", "a1", "a2"}
	if got := postIDs(out); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPopularStrategy_SpreadsEvents(t *testing.T) {
	var posts []*Post
	for i := 0; i < 6; i++ {
		p := testPost(fmt.Sprintf("p%d", i), CategoryPurchase, time.Duration(i)*time.Minute)
		event := fmt.Sprintf("e%d", i)
		if i < 3 {
			event = "same"
		}
		p.Payload = PurchasePayload{EventID: event}
		p.Engagement = Engagement{Likes: int64(100 - i)}
		posts = append(posts, p)
	}

	out := NewPopularStrategy(0).Order(posts, nil, testNow)

	got := postIDs(out)
	// p1 and p2 repeat p0's event inside the first block of ten
	want := []PostID{"p0", "p3", "p4", "p5", "p1", "p2"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEventsStrategy_Eligibility(t *testing.T) {
	s := NewEventsStrategy()

	mention := testPost("a", CategoryPersonal, 0)
	mention.Payload = PersonalPayload{Text: "Who's going to the Concert tonight?"}
	chatter := testPost("b", CategoryPersonal, 0)
	chatter.Payload = PersonalPayload{Text: "showing my new shoes"}

	tests := []struct {
		name string
		post *Post
		want bool
	}{
		{"purchase", testPost("c", CategoryPurchase, 0), true},
		{"recommendation", testPost("d", CategoryEventRecommendation, 0), true},
		{"personal mentioning an event", mention, true},
		{"personal without keyword", chatter, false},
		{"community", testPost("e", CategoryCommunity, 0), false},
		{"sponsored", testPost("f", CategorySponsored, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Eligible(tt.post, nil, testNow); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEventsStrategy_AmplifiesPurchaseSignal(t *testing.T) {
	// 9/(9+6) = 0.6 is not above the threshold, 13/(13+6) is
	profile := DefaultSignalProfile(NewUserID())
	profile.LikesOnPurchases = 9
	profile.LikesOnSocial = 6

	post := testPost("p", CategoryPurchase, 0)
	out := NewEventsStrategy().Order([]*Post{post}, profile, testNow)

	amplified := profile.WithAmplifiedPurchaseSignal(1.5)
	want := ScorePost(post, amplified, ComputeWeights(amplified), testNow)
	if len(out) != 1 || out[0].Score != want {
		t.Fatalf("expected score %v, got %+v", want, out)
	}
	if out[0].Score <= ScorePost(post, profile, ComputeWeights(profile), testNow) {
		t.Error("amplified profile should rank purchases higher")
	}
	if profile.LikesOnPurchases != 9 {
		t.Error("profile was mutated")
	}
}

func TestMentionsEvent(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Festival season!", true},
		{"got 2 tickets", true},
		{"CONCERT at 9", true},
		{"two gigs this week", true},
		{"delivered yesterday", false},
		{"I live here", false},
		{"show me the photos", false},
		{"lit a match", false},
		{"showroom opening", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := MentionsEvent(tt.text); got != tt.want {
			t.Errorf("MentionsEvent(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
