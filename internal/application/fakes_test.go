package application

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/joacominatel/pulsefeed/internal/domain"
)

var fixedNow = time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

func fixedTime() time.Time { return fixedNow }

// fakePostStore serves posts from memory with the same cursor semantics as
// the postgres store.
type fakePostStore struct {
	mu      sync.Mutex
	posts   []*domain.Post
	err     error
	block   bool
	calls   int
	filters []domain.CandidateFilter
	limits  []int
	cursors []*domain.Cursor
}

func (s *fakePostStore) FetchCandidates(
	ctx context.Context,
	_ domain.UserID,
	filter domain.CandidateFilter,
	cursor *domain.Cursor,
	limit int,
	_ time.Time,
) ([]*domain.Post, bool, error) {
	s.mu.Lock()
	s.calls++
	s.filters = append(s.filters, filter)
	s.limits = append(s.limits, limit)
	s.cursors = append(s.cursors, cursor)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, false, ctx.Err()
	}
	if s.err != nil {
		return nil, false, s.err
	}

	var out []*domain.Post
	for _, p := range domain.SortChronological(s.posts) {
		if cursor != nil && !cursor.Admits(p) {
			continue
		}
		if filter.FollowingOnly && !p.IsFollowingAuthor {
			continue
		}
		if len(filter.Categories) > 0 && !slices.Contains(filter.Categories, p.Category) {
			continue
		}
		out = append(out, p)
	}
	if len(out) > limit {
		return out[:limit], true, nil
	}
	return out, false, nil
}

func (s *fakePostStore) FindByIDs(_ context.Context, _ domain.UserID, ids []domain.PostID) ([]*domain.Post, error) {
	var out []*domain.Post
	for _, p := range s.posts {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, s.err
}

func (s *fakePostStore) Exists(_ context.Context, id domain.PostID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, p := range s.posts {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeSignalStore struct {
	profile *domain.SignalProfile
	err     error
}

func (s *fakeSignalStore) FetchSignalProfile(_ context.Context, viewerID domain.UserID) (*domain.SignalProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.profile == nil {
		return domain.DefaultSignalProfile(viewerID), nil
	}
	return s.profile, nil
}

type mapCache struct {
	items map[string]CandidateBatch
}

func (c *mapCache) Get(key string) (CandidateBatch, bool) {
	b, ok := c.items[key]
	return b, ok
}

func (c *mapCache) Add(key string, b CandidateBatch) {
	if c.items == nil {
		c.items = map[string]CandidateBatch{}
	}
	c.items[key] = b
}

type recordingMetrics struct {
	mu          sync.Mutex
	served      int
	errors      []string
	resets      int
	cacheHits   int
	cacheMisses int
}

func (m *recordingMetrics) ObserveFeed(string, time.Duration, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.served++
}

func (m *recordingMetrics) RecordFeedError(_, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, reason)
}

func (m *recordingMetrics) RecordCursorReset(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

func (m *recordingMetrics) RecordCandidateCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

type fakeQueue struct {
	full  bool
	items []*domain.Interaction
}

func (q *fakeQueue) Enqueue(i *domain.Interaction) error {
	if q.full {
		return ErrIngestionBacklog
	}
	q.items = append(q.items, i)
	return nil
}

type fakeBoard struct {
	entries []domain.TrendingEntry
	err     error
}

func (b *fakeBoard) Increment(context.Context, map[domain.PostID]float64) error { return b.err }

func (b *fakeBoard) Top(_ context.Context, n int) ([]domain.TrendingEntry, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.entries[:min(n, len(b.entries))], nil
}

// seedPosts builds n personal posts a minute apart; every other one is
// from a followed author.
func seedPosts(n int) []*domain.Post {
	posts := make([]*domain.Post, n)
	for i := range posts {
		posts[i] = &domain.Post{
			ID:                domain.PostID(fmt.Sprintf("post-%03d", i)),
			AuthorID:          domain.NewUserID(),
			Category:          domain.CategoryPersonal,
			CreatedAt:         fixedNow.Add(-time.Duration(i) * time.Minute),
			IsFollowingAuthor: i%2 == 0,
			Payload:           domain.PersonalPayload{Text: "hello"},
		}
	}
	return posts
}
