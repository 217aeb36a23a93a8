package domain

import (
	"errors"
	"maps"
	"time"

	"github.com/goccy/go-json"
)

// Interaction is a single viewer action on a post.
// interactions are append-only and immutable once created.
type Interaction struct {
	id         InteractionID
	postID     PostID
	userID     UserID
	kind       InteractionKind
	metadata   map[string]any
	occurredAt time.Time
}

var (
	ErrInteractionPostEmpty = errors.New("interaction must reference a post")
	ErrInteractionUserEmpty = errors.New("interaction must have a user")
	ErrInteractionKindEmpty = errors.New("interaction must have a valid kind")
)

// NewInteraction creates a new Interaction stamped at occurredAt.
// the metadata map is copied.
func NewInteraction(
	postID PostID,
	userID UserID,
	kind InteractionKind,
	metadata map[string]any,
	occurredAt time.Time,
) (*Interaction, error) {
	if postID == "" {
		return nil, ErrInteractionPostEmpty
	}
	if userID.IsZero() {
		return nil, ErrInteractionUserEmpty
	}
	if !kind.IsValid() {
		return nil, ErrInteractionKindEmpty
	}

	return &Interaction{
		id:         NewInteractionID(),
		postID:     postID,
		userID:     userID,
		kind:       kind,
		metadata:   maps.Clone(metadata),
		occurredAt: occurredAt.UTC(),
	}, nil
}

// ReconstructInteraction recreates an Interaction from stored data.
// use this when loading from database, not for recording new interactions.
func ReconstructInteraction(
	id InteractionID,
	postID PostID,
	userID UserID,
	kind InteractionKind,
	metadata map[string]any,
	occurredAt time.Time,
) *Interaction {
	return &Interaction{
		id:         id,
		postID:     postID,
		userID:     userID,
		kind:       kind,
		metadata:   metadata,
		occurredAt: occurredAt,
	}
}

func (i *Interaction) ID() InteractionID     { return i.id }
func (i *Interaction) PostID() PostID        { return i.postID }
func (i *Interaction) UserID() UserID        { return i.userID }
func (i *Interaction) Kind() InteractionKind { return i.kind }
func (i *Interaction) OccurredAt() time.Time { return i.occurredAt }

// Metadata returns a copy of the interaction metadata.
func (i *Interaction) Metadata() map[string]any {
	return maps.Clone(i.metadata)
}

// MetadataJSON returns the metadata as a JSON byte slice for storage.
func (i *Interaction) MetadataJSON() ([]byte, error) {
	if i.metadata == nil {
		return []byte("null"), nil
	}
	return json.Marshal(i.metadata)
}

// TallyEngagement sums the counters a batch of interactions adds per post.
// posts without any counted interaction are left out.
func TallyEngagement(batch []*Interaction) map[PostID]Engagement {
	out := make(map[PostID]Engagement)
	for _, i := range batch {
		if i == nil {
			continue
		}
		delta := i.kind.Counts()
		if delta.IsZero() {
			continue
		}
		out[i.postID] = out[i.postID].Add(delta)
	}
	return out
}

// TallyTrending sums the trending score a batch adds per post.
func TallyTrending(batch []*Interaction) map[PostID]float64 {
	out := make(map[PostID]float64)
	for _, i := range batch {
		if i == nil {
			continue
		}
		if w := i.kind.TrendingWeight(); w > 0 {
			out[i.postID] += w
		}
	}
	return out
}
