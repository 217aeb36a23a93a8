package domain

import (
	"encoding/base64"
	"time"

	"github.com/goccy/go-json"
)

// Cursor marks the last-seen post of a page.
// the string form is opaque to callers.
type Cursor struct {
	Timestamp time.Time
	ID        PostID
}

// cursorVersion lets the format change without misreading old cursors.
// version 1 carried unix nanoseconds, which only span 1678 to 2262.
const cursorVersion = 2

type cursorWire struct {
	V  int    `json:"v"`
	S  int64  `json:"s"`
	NS int64  `json:"ns"`
	ID string `json:"id"`
}

// EncodeCursor serializes (timestamp, id) into an opaque url-safe string.
func EncodeCursor(ts time.Time, id PostID) string {
	raw, err := json.Marshal(cursorWire{
		V:  cursorVersion,
		S:  ts.Unix(),
		NS: int64(ts.Nanosecond()),
		ID: string(id),
	})
	if err != nil {
		// a struct of ints and strings always marshals
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor reverses EncodeCursor.
// anything that EncodeCursor could not have produced yields ErrInvalidCursor.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var wire cursorWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if wire.V != cursorVersion || wire.ID == "" {
		return Cursor{}, ErrInvalidCursor
	}
	if wire.NS < 0 || wire.NS >= int64(time.Second) {
		return Cursor{}, ErrInvalidCursor
	}

	return Cursor{
		Timestamp: time.Unix(wire.S, wire.NS).UTC(),
		ID:        PostID(wire.ID),
	}, nil
}

// String returns the encoded form of the cursor.
func (c Cursor) String() string {
	return EncodeCursor(c.Timestamp, c.ID)
}

// Admits reports whether post belongs after the cursor: strictly older, or
// the same instant with a smaller id. matches ChronologicallyBefore.
func (c Cursor) Admits(post *Post) bool {
	if post == nil {
		return false
	}
	if post.CreatedAt.Before(c.Timestamp) {
		return true
	}
	return post.CreatedAt.Equal(c.Timestamp) && post.ID < c.ID
}
