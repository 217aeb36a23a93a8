package domain

import "time"

// Engagement holds the raw interaction counters of a post.
// counters are mutated by interaction ingestion, never by ranking.
type Engagement struct {
	Likes    int64
	Comments int64
	Saves    int64
	Shares   int64
	Reports  int64
}

// Total returns likes + comments + saves + shares.
// reports are not engagement.
func (e Engagement) Total() int64 {
	return nonNegative(e.Likes) + nonNegative(e.Comments) + nonNegative(e.Saves) + nonNegative(e.Shares)
}

// Post is a candidate content unit as handed to a ranking pass.
// treat it as immutable once fetched.
type Post struct {
	ID        PostID
	AuthorID  UserID
	Category  Category
	CreatedAt time.Time

	Engagement Engagement

	// IsFollowingAuthor is viewer-relative, filled by the post store.
	IsFollowingAuthor bool

	// Payload carries the category specific fields.
	// nil is allowed and behaves like an empty payload.
	Payload Payload
}

// Payload is the category keyed part of a post.
// implementations are the *Payload types in this file.
type Payload interface {
	payloadCategory() Category
}

// PersonalPayload is carried by personal posts.
type PersonalPayload struct {
	Text string
}

// PurchasePayload is carried by purchase announcements.
type PurchasePayload struct {
	EventID       string
	EventCategory string
}

// CommunityPayload is carried by community posts.
type CommunityPayload struct {
	CommunityID CommunityID
}

// ActivityPayload is carried by activity posts.
type ActivityPayload struct {
	Summary string
}

// EventRecommendationPayload is carried by event recommendations.
type EventRecommendationPayload struct {
	EventID       string
	EventCategory string
}

// SponsoredPayload is carried by sponsored posts.
type SponsoredPayload struct {
	Advertiser string
}

func (PersonalPayload) payloadCategory() Category            { return CategoryPersonal }
func (PurchasePayload) payloadCategory() Category            { return CategoryPurchase }
func (CommunityPayload) payloadCategory() Category           { return CategoryCommunity }
func (ActivityPayload) payloadCategory() Category            { return CategoryActivity }
func (EventRecommendationPayload) payloadCategory() Category { return CategoryEventRecommendation }
func (SponsoredPayload) payloadCategory() Category           { return CategorySponsored }

// payload returns the post payload only when it matches the post category.
// a mismatched payload is a malformed post and is treated as empty.
func (p *Post) payload() Payload {
	if p.Payload == nil || p.Payload.payloadCategory() != p.Category {
		return nil
	}
	return p.Payload
}

// EventCategory returns the event category of purchase and event
// recommendation posts.
func (p *Post) EventCategory() (string, bool) {
	switch pl := p.payload().(type) {
	case PurchasePayload:
		return pl.EventCategory, pl.EventCategory != ""
	case EventRecommendationPayload:
		return pl.EventCategory, pl.EventCategory != ""
	default:
		return "", false
	}
}

// EventID returns the referenced event of purchase and event recommendation posts.
func (p *Post) EventID() (string, bool) {
	switch pl := p.payload().(type) {
	case PurchasePayload:
		return pl.EventID, pl.EventID != ""
	case EventRecommendationPayload:
		return pl.EventID, pl.EventID != ""
	default:
		return "", false
	}
}

// CommunityID returns the community of a community post.
func (p *Post) CommunityID() (CommunityID, bool) {
	if pl, ok := p.payload().(CommunityPayload); ok && !pl.CommunityID.IsZero() {
		return pl.CommunityID, true
	}
	return CommunityID{}, false
}

// Text returns the body of a personal post.
func (p *Post) Text() string {
	if pl, ok := p.payload().(PersonalPayload); ok {
		return pl.Text
	}
	return ""
}

// CreatedHour returns the UTC hour of day the post was created.
func (p *Post) CreatedHour() int {
	return p.CreatedAt.UTC().Hour()
}

// AgeHours returns the age of the post at now, in fractional hours.
// posts dated in the future are treated as brand new.
func (p *Post) AgeHours(now time.Time) float64 {
	age := now.Sub(p.CreatedAt)
	if age < 0 {
		return 0
	}
	return age.Hours()
}

// CursorKey returns the pagination key of the post.
func (p *Post) CursorKey() Cursor {
	return Cursor{Timestamp: p.CreatedAt, ID: p.ID}
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
