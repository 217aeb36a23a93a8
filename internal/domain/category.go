package domain

import "errors"

// Category is the closed set of post kinds the feed knows about.
// the category decides which payload a post carries.
type Category string

const (
	CategoryPersonal            Category = "personal"
	CategoryPurchase            Category = "purchase"
	CategoryCommunity           Category = "community"
	CategoryActivity            Category = "activity"
	CategoryEventRecommendation Category = "event_recommendation"
	CategorySponsored           Category = "sponsored"
)

var ErrInvalidCategory = errors.New("invalid post category")

// validCategories for quick lookup.
var validCategories = map[Category]bool{
	CategoryPersonal:            true,
	CategoryPurchase:            true,
	CategoryCommunity:           true,
	CategoryActivity:            true,
	CategoryEventRecommendation: true,
	CategorySponsored:           true,
}

// AllCategories returns every category in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryPersonal,
		CategoryPurchase,
		CategoryCommunity,
		CategoryActivity,
		CategoryEventRecommendation,
		CategorySponsored,
	}
}

// ParseCategory validates and returns a Category from a string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !validCategories[c] {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// IsValid returns true if the category is one of the known values.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// IsLocationRelevant reports whether posts of this category point at
// something happening somewhere (a purchase or a recommended event).
func (c Category) IsLocationRelevant() bool {
	return c == CategoryPurchase || c == CategoryEventRecommendation
}

// MixGroup returns the mixing bucket a category is counted under.
// personal, community and activity posts share the social bucket.
// unknown categories return an empty group and are never mixed.
func (c Category) MixGroup() MixGroup {
	switch c {
	case CategoryPersonal, CategoryCommunity, CategoryActivity:
		return MixGroupSocial
	case CategoryPurchase:
		return MixGroupPurchase
	case CategoryEventRecommendation:
		return MixGroupEventRecommendation
	case CategorySponsored:
		return MixGroupSponsored
	default:
		return ""
	}
}

// MixGroup is a bucket the mixer assigns target ratios to.
type MixGroup string

const (
	MixGroupSocial              MixGroup = "social"
	MixGroupPurchase            MixGroup = "purchase"
	MixGroupEventRecommendation MixGroup = "event_recommendation"
	MixGroupSponsored           MixGroup = "sponsored"
)

// mixGroupOrder is the declaration order the mixer walks in.
var mixGroupOrder = []MixGroup{
	MixGroupSocial,
	MixGroupPurchase,
	MixGroupEventRecommendation,
	MixGroupSponsored,
}

// MixGroups returns the mixing buckets in declaration order.
func MixGroups() []MixGroup {
	out := make([]MixGroup, len(mixGroupOrder))
	copy(out, mixGroupOrder)
	return out
}
