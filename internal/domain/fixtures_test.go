package domain

import (
	"fmt"
	"time"
)

// testNow sits outside the default peak hours so no flat boost applies.
var testNow = time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

func testPost(id string, category Category, age time.Duration) *Post {
	return &Post{
		ID:        PostID(id),
		AuthorID:  NewUserID(),
		Category:  category,
		CreatedAt: testNow.Add(-age),
	}
}

// testCandidates builds n posts a minute apart, cycling through every category.
func testCandidates(n int) []*Post {
	cats := AllCategories()
	posts := make([]*Post, 0, n)
	for i := 0; i < n; i++ {
		p := testPost(fmt.Sprintf("p%03d", i), cats[i%len(cats)], time.Duration(i)*time.Minute)
		p.Engagement = Engagement{Likes: int64(i % 7), Comments: int64(i % 3), Saves: int64(i % 5)}
		p.IsFollowingAuthor = i%4 == 0
		switch p.Category {
		case CategoryPersonal:
			text := "just a thought"
			if i%2 == 0 {
				text = "got tickets for the festival"
			}
			p.Payload = PersonalPayload{Text: text}
		case CategoryPurchase:
			p.Payload = PurchasePayload{EventID: fmt.Sprintf("ev%d", i%3), EventCategory: "music"}
		case CategoryEventRecommendation:
			p.Payload = EventRecommendationPayload{EventID: fmt.Sprintf("ev%d", i%4), EventCategory: "sports"}
		}
		posts = append(posts, p)
	}
	return posts
}

func postIDs(ranked []RankedPost) []PostID {
	ids := make([]PostID, len(ranked))
	for i, rp := range ranked {
		ids[i] = rp.Post.ID
	}
	return ids
}
