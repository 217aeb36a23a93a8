package domain

import "errors"

// InteractionKind is what a viewer did to a post.
type InteractionKind string

const (
	InteractionView    InteractionKind = "view"
	InteractionLike    InteractionKind = "like"
	InteractionComment InteractionKind = "comment"
	InteractionSave    InteractionKind = "save"
	InteractionShare   InteractionKind = "share"
	InteractionReport  InteractionKind = "report"
)

var ErrInvalidInteractionKind = errors.New("invalid interaction kind")

// validInteractionKinds for quick lookup.
var validInteractionKinds = map[InteractionKind]bool{
	InteractionView:    true,
	InteractionLike:    true,
	InteractionComment: true,
	InteractionSave:    true,
	InteractionShare:   true,
	InteractionReport:  true,
}

// ParseInteractionKind validates and returns an InteractionKind from a string.
func ParseInteractionKind(s string) (InteractionKind, error) {
	k := InteractionKind(s)
	if !validInteractionKinds[k] {
		return "", ErrInvalidInteractionKind
	}
	return k, nil
}

// String returns the string representation of the InteractionKind.
func (k InteractionKind) String() string {
	return string(k)
}

// IsValid returns true if the kind is one of the known values.
func (k InteractionKind) IsValid() bool {
	return validInteractionKinds[k]
}

// TrendingWeight is how much one interaction pushes a post up the trending
// board. reports never help a post trend.
func (k InteractionKind) TrendingWeight() float64 {
	switch k {
	case InteractionView:
		return 0.1
	case InteractionLike:
		return 1.0
	case InteractionComment:
		return 2.0
	case InteractionSave:
		return 3.0
	case InteractionShare:
		return 3.0
	default:
		return 0
	}
}

// Counts returns the engagement counters one interaction of this kind adds.
// views are recorded but do not count as engagement.
func (k InteractionKind) Counts() Engagement {
	switch k {
	case InteractionLike:
		return Engagement{Likes: 1}
	case InteractionComment:
		return Engagement{Comments: 1}
	case InteractionSave:
		return Engagement{Saves: 1}
	case InteractionShare:
		return Engagement{Shares: 1}
	case InteractionReport:
		return Engagement{Reports: 1}
	default:
		return Engagement{}
	}
}

// Add returns the field-wise sum of two engagement snapshots.
func (e Engagement) Add(o Engagement) Engagement {
	return Engagement{
		Likes:    e.Likes + o.Likes,
		Comments: e.Comments + o.Comments,
		Saves:    e.Saves + o.Saves,
		Shares:   e.Shares + o.Shares,
		Reports:  e.Reports + o.Reports,
	}
}

// IsZero reports whether no counter is set.
func (e Engagement) IsZero() bool {
	return e == Engagement{}
}
