package domain

// RankingWeights are the scoring knobs for a single ranking pass.
// derived per call from the viewer profile, then treated as constants.
type RankingWeights struct {
	// base weight per category. Social covers personal posts.
	Purchase            float64
	Social              float64
	Community           float64
	Activity            float64
	EventRecommendation float64
	Sponsored           float64

	// engagement multipliers
	Like    float64
	Comment float64
	Save    float64
	Share   float64

	// FreshnessDecay is the exponent of the age attenuation.
	// higher means old content fades faster.
	FreshnessDecay float64

	// personalization boosts
	FollowingBoost float64
	CategoryBoost  float64
	LocationBoost  float64
}

// every derived weight stays inside [MinWeight, MaxWeight].
const (
	MinWeight = 0.1
	MaxWeight = 10.0
)

// adaptation thresholds and factors.
const (
	highPurchaseRatio       = 0.6
	lowPurchaseRatio        = 0.3
	highCommentsRatio       = 0.15
	heavyFollowingCount     = 50
	purchaseAffinityFactor  = 1.3
	eventAffinityFactor     = 1.2
	socialAffinityFactor    = 1.2
	communityAffinityFactor = 1.1
	commentAffinityFactor   = 1.2
	followingAffinityFactor = 1.2
)

// DefaultRankingWeights returns the empirically fixed base weights.
func DefaultRankingWeights() RankingWeights {
	return RankingWeights{
		Purchase:            2.0,
		Social:              1.0,
		Community:           1.2,
		Activity:            0.8,
		EventRecommendation: 1.5,
		Sponsored:           0.5,

		Like:    1.0,
		Comment: 2.0,
		Save:    1.5,
		Share:   3.0,

		FreshnessDecay: 1.4,

		FollowingBoost: 2.0,
		CategoryBoost:  1.3,
		LocationBoost:  1.8,
	}
}

// ComputeWeights derives ranking weights from a viewer profile.
// this is a pure, total function - a nil profile yields the defaults.
//
// adjustments are multiplicative and independent:
// - purchase ratio > 0.6: purchase x1.3, event recommendation x1.2
// - purchase ratio < 0.3: social x1.2, community x1.1
// - comments ratio > 0.15: comment multiplier x1.2
// - following more than 50 accounts: following boost x1.2
//
// the result is clamped to [MinWeight, MaxWeight] per field.
func ComputeWeights(profile *SignalProfile) RankingWeights {
	w := DefaultRankingWeights()
	if profile == nil {
		return w
	}

	ratio := profile.PurchaseRatio()
	if ratio > highPurchaseRatio {
		w.Purchase *= purchaseAffinityFactor
		w.EventRecommendation *= eventAffinityFactor
	}
	if ratio < lowPurchaseRatio {
		w.Social *= socialAffinityFactor
		w.Community *= communityAffinityFactor
	}

	if profile.CommentsRatio > highCommentsRatio {
		w.Comment *= commentAffinityFactor
	}

	if profile.FollowingCount > heavyFollowingCount {
		w.FollowingBoost *= followingAffinityFactor
	}

	return w.clamped()
}

// ForCategory returns the base weight of a category.
// unknown categories weigh nothing.
func (w RankingWeights) ForCategory(c Category) float64 {
	switch c {
	case CategoryPurchase:
		return w.Purchase
	case CategoryPersonal:
		return w.Social
	case CategoryCommunity:
		return w.Community
	case CategoryActivity:
		return w.Activity
	case CategoryEventRecommendation:
		return w.EventRecommendation
	case CategorySponsored:
		return w.Sponsored
	default:
		return 0
	}
}

func (w RankingWeights) clamped() RankingWeights {
	for _, f := range []*float64{
		&w.Purchase, &w.Social, &w.Community, &w.Activity, &w.EventRecommendation, &w.Sponsored,
		&w.Like, &w.Comment, &w.Save, &w.Share,
		&w.FreshnessDecay,
		&w.FollowingBoost, &w.CategoryBoost, &w.LocationBoost,
	} {
		*f = clampWeight(*f)
	}
	return w
}

func clampWeight(v float64) float64 {
	if v != v || v < MinWeight { // NaN or too small
		return MinWeight
	}
	if v > MaxWeight {
		return MaxWeight
	}
	return v
}
