package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UserID represents a unique identifier for a user (viewer or author).
// wrapping uuid to enforce type safety and prevent mixing with other ids.
type UserID struct {
	value uuid.UUID
}

// NewUserID creates a new random UserID.
func NewUserID() UserID {
	return UserID{value: uuid.New()}
}

// ParseUserID parses a string into a UserID.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user id: %w", err)
	}
	return UserID{value: id}, nil
}

// UserIDFromUUID creates a UserID from an existing uuid.
func UserIDFromUUID(id uuid.UUID) UserID {
	return UserID{value: id}
}

// String returns the string representation of the UserID.
func (id UserID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id UserID) UUID() uuid.UUID {
	return id.value
}

// IsZero returns true if the UserID is not set.
func (id UserID) IsZero() bool {
	return id.value == uuid.Nil
}

// CommunityID represents a unique identifier for a community.
type CommunityID struct {
	value uuid.UUID
}

// NewCommunityID creates a new random CommunityID.
func NewCommunityID() CommunityID {
	return CommunityID{value: uuid.New()}
}

// ParseCommunityID parses a string into a CommunityID.
func ParseCommunityID(s string) (CommunityID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CommunityID{}, fmt.Errorf("invalid community id: %w", err)
	}
	return CommunityID{value: id}, nil
}

// CommunityIDFromUUID creates a CommunityID from an existing uuid.
func CommunityIDFromUUID(id uuid.UUID) CommunityID {
	return CommunityID{value: id}
}

// String returns the string representation of the CommunityID.
func (id CommunityID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id CommunityID) UUID() uuid.UUID {
	return id.value
}

// IsZero returns true if the CommunityID is not set.
func (id CommunityID) IsZero() bool {
	return id.value == uuid.Nil
}

// InteractionID represents a unique identifier for a recorded interaction.
type InteractionID struct {
	value uuid.UUID
}

// NewInteractionID creates a new random InteractionID.
func NewInteractionID() InteractionID {
	return InteractionID{value: uuid.New()}
}

// ParseInteractionID parses a string into an InteractionID.
func ParseInteractionID(s string) (InteractionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return InteractionID{}, fmt.Errorf("invalid interaction id: %w", err)
	}
	return InteractionID{value: id}, nil
}

// String returns the string representation of the InteractionID.
func (id InteractionID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id InteractionID) UUID() uuid.UUID {
	return id.value
}

// IsZero returns true if the InteractionID is not set.
func (id InteractionID) IsZero() bool {
	return id.value == uuid.Nil
}

// PostID is the opaque, globally unique identifier of a post.
// the engine only compares post ids, it never interprets them.
type PostID string

var (
	ErrPostIDEmpty   = errors.New("post id cannot be empty")
	ErrPostIDTooLong = errors.New("post id must be at most 128 characters")
)

// ParsePostID validates a post id coming from outside the engine.
func ParsePostID(s string) (PostID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrPostIDEmpty
	}
	if len(s) > 128 {
		return "", ErrPostIDTooLong
	}
	return PostID(s), nil
}

// String returns the string representation of the PostID.
func (id PostID) String() string {
	return string(id)
}
