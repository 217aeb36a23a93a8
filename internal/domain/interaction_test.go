package domain

import (
	"testing"
)

func TestNewInteraction_ValidInput(t *testing.T) {
	userID := NewUserID()

	i, err := NewInteraction("post-1", userID, InteractionLike, map[string]any{"source": "web"}, testNow)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i.PostID() != "post-1" {
		t.Errorf("expected post id post-1, got %s", i.PostID())
	}
	if i.UserID() != userID {
		t.Errorf("expected user id %s, got %s", userID, i.UserID())
	}
	if i.ID().IsZero() {
		t.Error("expected non-zero interaction id")
	}
	if !i.OccurredAt().Equal(testNow) {
		t.Errorf("expected %v, got %v", testNow, i.OccurredAt())
	}
}

func TestNewInteraction_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		postID  PostID
		userID  UserID
		kind    InteractionKind
		wantErr error
	}{
		{"empty post", "", NewUserID(), InteractionLike, ErrInteractionPostEmpty},
		{"anonymous", "p", UserID{}, InteractionLike, ErrInteractionUserEmpty},
		{"bad kind", "p", NewUserID(), InteractionKind("poke"), ErrInteractionKindEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInteraction(tt.postID, tt.userID, tt.kind, nil, testNow)
			if err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInteraction_MetadataIsCopied(t *testing.T) {
	original := map[string]any{"key": "original"}

	i, err := NewInteraction("p", NewUserID(), InteractionSave, original, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// modify original map after creation
	original["key"] = "modified"

	got := i.Metadata()
	if got["key"] != "original" {
		t.Errorf("expected 'original', got %v", got["key"])
	}

	got["key"] = "changed through getter"
	if i.Metadata()["key"] != "original" {
		t.Error("getter should return a copy")
	}
}

func TestInteraction_MetadataJSON(t *testing.T) {
	empty, _ := NewInteraction("p", NewUserID(), InteractionView, nil, testNow)
	raw, err := empty.MetadataJSON()
	if err != nil || string(raw) != "null" {
		t.Errorf("expected null, got %s (%v)", raw, err)
	}

	full, _ := NewInteraction("p", NewUserID(), InteractionView, map[string]any{"a": 1}, testNow)
	raw, err = full.MetadataJSON()
	if err != nil || string(raw) != `{"a":1}` {
		t.Errorf(`expected {"a":1}, got %s (%v)`, raw, err)
	}
}

func TestParseInteractionKind(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"view", true},
		{"like", true},
		{"comment", true},
		{"save", true},
		{"share", true},
		{"report", true},
		{"LIKE", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseInteractionKind(tt.input)
			if (err == nil) != tt.valid {
				t.Errorf("ParseInteractionKind(%q) error = %v, valid %v", tt.input, err, tt.valid)
			}
		})
	}
}

func TestTallyEngagement(t *testing.T) {
	user := NewUserID()
	mk := func(post PostID, kind InteractionKind) *Interaction {
		i, err := NewInteraction(post, user, kind, nil, testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return i
	}

	batch := []*Interaction{
		mk("a", InteractionLike),
		mk("a", InteractionLike),
		mk("a", InteractionReport),
		mk("b", InteractionShare),
		mk("c", InteractionView),
		nil,
	}

	got := TallyEngagement(batch)

	if len(got) != 2 {
		t.Fatalf("expected 2 posts, got %d: %v", len(got), got)
	}
	if got["a"] != (Engagement{Likes: 2, Reports: 1}) {
		t.Errorf("unexpected counters for a: %+v", got["a"])
	}
	if got["b"] != (Engagement{Shares: 1}) {
		t.Errorf("unexpected counters for b: %+v", got["b"])
	}

	trending := TallyTrending(batch)
	if trending["a"] != 2 {
		t.Errorf("reports should not count toward trending, got %v", trending["a"])
	}
	if trending["c"] != 0.1 {
		t.Errorf("expected view weight 0.1, got %v", trending["c"])
	}
}
