package domain

// LocationPreference is where a viewer likes to attend things.
type LocationPreference struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// SignalProfile is the behavioral aggregate of a single viewer.
// built fresh for every ranking request and never mutated by the engine.
type SignalProfile struct {
	ViewerID UserID

	LikesOnPurchases int64
	LikesOnSocial    int64
	FollowingCount   int64
	FollowersCount   int64

	// CommentsRatio and SavesRatio are shares of the viewer's interactions, in [0,1].
	CommentsRatio float64
	SavesRatio    float64

	FavoriteCategories   map[string]struct{}
	CommunityMemberships map[CommunityID]struct{}
	PeakActivityHours    map[int]struct{}

	Location *LocationPreference
}

// DefaultPeakActivityHours is used for viewers without recorded history.
var DefaultPeakActivityHours = []int{12, 18, 19, 20, 21}

// DefaultSignalProfile returns the neutral profile for a viewer with no history.
func DefaultSignalProfile(viewerID UserID) *SignalProfile {
	hours := make(map[int]struct{}, len(DefaultPeakActivityHours))
	for _, h := range DefaultPeakActivityHours {
		hours[h] = struct{}{}
	}
	return &SignalProfile{
		ViewerID:             viewerID,
		FavoriteCategories:   map[string]struct{}{},
		CommunityMemberships: map[CommunityID]struct{}{},
		PeakActivityHours:    hours,
	}
}

// LikesFavoriteCategory reports whether category is in the viewer's favorites.
func (p *SignalProfile) LikesFavoriteCategory(category string) bool {
	if p == nil || category == "" {
		return false
	}
	_, ok := p.FavoriteCategories[category]
	return ok
}

// IsMemberOf reports whether the viewer belongs to the community.
func (p *SignalProfile) IsMemberOf(id CommunityID) bool {
	if p == nil || id.IsZero() {
		return false
	}
	_, ok := p.CommunityMemberships[id]
	return ok
}

// IsPeakHour reports whether hour is one of the viewer's active hours.
func (p *SignalProfile) IsPeakHour(hour int) bool {
	if p == nil {
		return false
	}
	_, ok := p.PeakActivityHours[hour]
	return ok
}

// HasLocation reports whether the viewer set a location preference.
func (p *SignalProfile) HasLocation() bool {
	return p != nil && p.Location != nil
}

// PurchaseRatio is the share of the viewer's likes that went to purchases.
func (p *SignalProfile) PurchaseRatio() float64 {
	if p == nil {
		return 0
	}
	purchases := nonNegative(p.LikesOnPurchases)
	total := purchases + nonNegative(p.LikesOnSocial)
	if total < 1 {
		total = 1
	}
	return float64(purchases) / float64(total)
}

// WithAmplifiedPurchaseSignal returns a copy of the profile whose purchase
// likes are scaled by factor. the receiver is left untouched.
func (p *SignalProfile) WithAmplifiedPurchaseSignal(factor float64) *SignalProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.LikesOnPurchases = int64(float64(nonNegative(p.LikesOnPurchases)) * factor)
	return &cp
}
