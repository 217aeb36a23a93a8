package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/joacominatel/pulsefeed/internal/domain"
)

var queryNow = time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

func TestBuildCandidateQuery(t *testing.T) {
	viewer := domain.NewUserID()
	cursor := &domain.Cursor{Timestamp: queryNow.Add(-time.Hour), ID: "post-9"}

	tests := []struct {
		name     string
		filter   domain.CandidateFilter
		cursor   *domain.Cursor
		contains []string
		excludes []string
		args     int
	}{
		{
			name:     "unfiltered first page",
			filter:   domain.CandidateFilter{},
			contains: []string{"ORDER BY p.created_at DESC, p.id DESC", "LIMIT $2"},
			excludes: []string{"\nWHERE ", "ANY("},
			args:     2,
		},
		{
			name: "categories and window",
			filter: domain.CandidateFilter{
				Categories:      []domain.Category{domain.CategoryPurchase, domain.CategoryPersonal},
				TimeWindowHours: 72,
			},
			contains: []string{"p.category = ANY($2)", "p.created_at >= $3", "LIMIT $4"},
			args:     4,
		},
		{
			name:     "cursor",
			filter:   domain.CandidateFilter{},
			cursor:   cursor,
			contains: []string{"(p.created_at, p.id) < ($2, $3)", "LIMIT $4"},
			args:     4,
		},
		{
			name:     "following only",
			filter:   domain.CandidateFilter{FollowingOnly: true},
			contains: []string{"f.follower_id = $1 AND f.followee_id = p.author_id)"},
			excludes: []string{"community_members"},
			args:     2,
		},
		{
			name:     "following with communities",
			filter:   domain.CandidateFilter{FollowingOnly: true, IncludeMemberCommunities: true},
			contains: []string{" OR p.community_id IN (SELECT m.community_id FROM community_members m WHERE m.user_id = $1)"},
			args:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildCandidateQuery(viewer, tt.filter, tt.cursor, 31, queryNow)

			for _, want := range tt.contains {
				if !strings.Contains(query, want) {
					t.Errorf("query missing %q:\n%s", want, query)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(query, unwanted) {
					t.Errorf("query should not contain %q:\n%s", unwanted, query)
				}
			}
			if len(args) != tt.args {
				t.Fatalf("got %d args, want %d", len(args), tt.args)
			}
			if args[0] != viewer.UUID() {
				t.Errorf("first arg = %v, want viewer id", args[0])
			}
			if args[len(args)-1] != 31 {
				t.Errorf("last arg = %v, want limit 31", args[len(args)-1])
			}
		})
	}
}

func TestBuildCandidateQuery_WindowArgument(t *testing.T) {
	_, args := buildCandidateQuery(domain.NewUserID(), domain.CandidateFilter{TimeWindowHours: 72}, nil, 10, queryNow)

	since, ok := args[1].(time.Time)
	if !ok {
		t.Fatalf("window arg is %T, want time.Time", args[1])
	}
	if want := queryNow.Add(-72 * time.Hour); !since.Equal(want) {
		t.Errorf("since = %v, want %v", since, want)
	}
}

func TestDecodePayload(t *testing.T) {
	community := domain.NewCommunityID()
	communityRaw := community.String()
	badCommunity := "not-a-uuid"

	tests := []struct {
		name        string
		category    domain.Category
		raw         string
		communityID *string
		want        domain.Payload
	}{
		{"personal", domain.CategoryPersonal, `{"text":"see you at the show"}`, nil, domain.PersonalPayload{Text: "see you at the show"}},
		{"purchase", domain.CategoryPurchase, `{"event_id":"e1","event_category":"music"}`, nil, domain.PurchasePayload{EventID: "e1", EventCategory: "music"}},
		{"event recommendation", domain.CategoryEventRecommendation, `{"event_id":"e2","event_category":"sports"}`, nil, domain.EventRecommendationPayload{EventID: "e2", EventCategory: "sports"}},
		{"activity", domain.CategoryActivity, `{"summary":"joined"}`, nil, domain.ActivityPayload{Summary: "joined"}},
		{"sponsored", domain.CategorySponsored, `{"advertiser":"acme"}`, nil, domain.SponsoredPayload{Advertiser: "acme"}},
		{"community from column", domain.CategoryCommunity, `{}`, &communityRaw, domain.CommunityPayload{CommunityID: community}},
		{"community without column", domain.CategoryCommunity, `{}`, nil, nil},
		{"community with bad column", domain.CategoryCommunity, `{}`, &badCommunity, nil},
		{"empty payload", domain.CategoryPurchase, ``, nil, domain.PurchasePayload{}},
		{"broken json", domain.CategoryPersonal, `{"text":`, nil, nil},
		{"unknown category", domain.Category("poll"), `{}`, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodePayload(tt.category, []byte(tt.raw), tt.communityID)
			if got != tt.want {
				t.Errorf("decodePayload() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
