package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joacominatel/pulsefeed/internal/domain"
)

// PostRepository implements domain.PostStore using Postgres.
type PostRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

// postColumns are selected by every post query. $1 is always the viewer.
const postColumns = `
	p.id, p.author_id, p.category, p.community_id, p.payload,
	p.likes, p.comments, p.saves, p.shares, p.reports, p.created_at,
	EXISTS (
		SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.followee_id = p.author_id
	) AS is_following`

// FetchCandidates returns the newest posts after cursor matching filter.
// one extra row is read to learn whether more posts exist.
func (r *PostRepository) FetchCandidates(
	ctx context.Context,
	viewerID domain.UserID,
	filter domain.CandidateFilter,
	cursor *domain.Cursor,
	limit int,
	now time.Time,
) ([]*domain.Post, bool, error) {
	if limit <= 0 {
		return []*domain.Post{}, false, nil
	}

	query, args := buildCandidateQuery(viewerID, filter, cursor, limit+1, now)

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}
	return posts, hasMore, nil
}

// buildCandidateQuery renders the candidate query for a filter.
// kept apart from FetchCandidates so the sql can be checked without a database.
func buildCandidateQuery(
	viewerID domain.UserID,
	filter domain.CandidateFilter,
	cursor *domain.Cursor,
	limit int,
	now time.Time,
) (string, []any) {
	args := []any{viewerID.UUID()}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	var where []string

	if len(filter.Categories) > 0 {
		cats := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			cats[i] = c.String()
		}
		where = append(where, "p.category = ANY("+arg(cats)+")")
	}

	if filter.TimeWindowHours > 0 {
		since := now.Add(-time.Duration(filter.TimeWindowHours) * time.Hour)
		where = append(where, "p.created_at >= "+arg(since))
	}

	if cursor != nil {
		where = append(where, fmt.Sprintf("(p.created_at, p.id) < (%s, %s)", arg(cursor.Timestamp), arg(cursor.ID.String())))
	}

	if filter.FollowingOnly {
		following := "EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.followee_id = p.author_id)"
		if filter.IncludeMemberCommunities {
			following = "(" + following +
				" OR p.community_id IN (SELECT m.community_id FROM community_members m WHERE m.user_id = $1))"
		}
		where = append(where, following)
	}

	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(postColumns)
	b.WriteString("\nFROM posts p")
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, "\n  AND "))
	}
	b.WriteString("\nORDER BY p.created_at DESC, p.id DESC")
	b.WriteString("\nLIMIT " + arg(limit))

	return b.String(), args
}

// FindByIDs loads posts by id. missing ids are skipped.
func (r *PostRepository) FindByIDs(ctx context.Context, viewerID domain.UserID, ids []domain.PostID) ([]*domain.Post, error) {
	if len(ids) == 0 {
		return []*domain.Post{}, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := "SELECT" + postColumns + "\nFROM posts p\nWHERE p.id = ANY($2)"

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, viewerID.UUID(), raw)
	if err != nil {
		return nil, fmt.Errorf("querying posts by ids: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// Exists checks if a post exists.
func (r *PostRepository) Exists(ctx context.Context, id domain.PostID) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`

	var exists bool
	if err := GetQuerier(ctx, r.pool).QueryRow(ctx, query, id.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking post existence: %w", err)
	}
	return exists, nil
}

func scanPosts(rows pgx.Rows) ([]*domain.Post, error) {
	posts := []*domain.Post{}

	for rows.Next() {
		var (
			id          string
			authorID    string
			category    string
			communityID *string
			payload     []byte
			e           domain.Engagement
			createdAt   time.Time
			following   bool
		)

		err := rows.Scan(
			&id, &authorID, &category, &communityID, &payload,
			&e.Likes, &e.Comments, &e.Saves, &e.Shares, &e.Reports,
			&createdAt, &following,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}

		author, err := domain.ParseUserID(authorID)
		if err != nil {
			return nil, fmt.Errorf("corrupted author id in database: %w", err)
		}

		// unknown categories and broken payloads are kept, the engine
		// treats them as empty rather than failing the page
		cat := domain.Category(category)
		posts = append(posts, &domain.Post{
			ID:                domain.PostID(id),
			AuthorID:          author,
			Category:          cat,
			CreatedAt:         createdAt.UTC(),
			Engagement:        e,
			IsFollowingAuthor: following,
			Payload:           decodePayload(cat, payload, communityID),
		})
	}

	return posts, rows.Err()
}

// payloadRecord is the jsonb shape of the payload column.
type payloadRecord struct {
	Text          string `json:"text,omitempty"`
	EventID       string `json:"event_id,omitempty"`
	EventCategory string `json:"event_category,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Advertiser    string `json:"advertiser,omitempty"`
}

// decodePayload builds the category payload. community posts take their
// community from the indexed column. returns nil for unreadable payloads.
func decodePayload(category domain.Category, raw []byte, communityID *string) domain.Payload {
	var rec payloadRecord
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil
		}
	}

	switch category {
	case domain.CategoryPersonal:
		return domain.PersonalPayload{Text: rec.Text}
	case domain.CategoryPurchase:
		return domain.PurchasePayload{EventID: rec.EventID, EventCategory: rec.EventCategory}
	case domain.CategoryCommunity:
		if communityID == nil {
			return nil
		}
		id, err := domain.ParseCommunityID(*communityID)
		if err != nil {
			return nil
		}
		return domain.CommunityPayload{CommunityID: id}
	case domain.CategoryActivity:
		return domain.ActivityPayload{Summary: rec.Summary}
	case domain.CategoryEventRecommendation:
		return domain.EventRecommendationPayload{EventID: rec.EventID, EventCategory: rec.EventCategory}
	case domain.CategorySponsored:
		return domain.SponsoredPayload{Advertiser: rec.Advertiser}
	default:
		return nil
	}
}
